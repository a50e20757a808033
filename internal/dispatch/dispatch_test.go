package dispatch

import (
	"context"
	"testing"

	"github.com/aslamtv/storebot-backend/pkg/enums"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRoutesToHandler(t *testing.T) {
	d := New(nil)

	var got Event
	require.NoError(t, d.Register(enums.EventCheckout, func(ctx context.Context, event Event) error {
		got = event
		return nil
	}))

	event := Event{Kind: enums.EventCheckout, UserID: 42, Args: map[string]string{"cart": "1"}}
	require.NoError(t, d.Dispatch(context.Background(), event))
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "1", got.Args["cart"])
}

func TestDispatchUnknownKind(t *testing.T) {
	d := New(nil)

	err := d.Dispatch(context.Background(), Event{Kind: enums.EventKind("bogus")})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	d := New(nil)
	noop := func(ctx context.Context, event Event) error { return nil }

	require.NoError(t, d.Register(enums.EventBuyItem, noop))
	require.Error(t, d.Register(enums.EventBuyItem, noop))
	require.Error(t, d.Register(enums.EventBuyGroup, nil))
	assert.Len(t, d.Kinds(), 1)
}
