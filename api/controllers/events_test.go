package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslamtv/storebot-backend/internal/dispatch"
	"github.com/aslamtv/storebot-backend/pkg/enums"
)

func TestDispatchEventRoutesToHandler(t *testing.T) {
	d := dispatch.New(nil)

	var gotUserID int64
	var gotArgs map[string]string
	err := d.Register(enums.EventBuyItem, func(_ context.Context, event dispatch.Event) error {
		gotUserID = event.UserID
		gotArgs = event.Args
		return nil
	})
	require.NoError(t, err)

	handler := DispatchEvent(d, nil)
	body := `{"kind":"buy_item","user_id":42,"args":{"item_id":"7"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(42), gotUserID)
	assert.Equal(t, "7", gotArgs["item_id"])
}

func TestDispatchEventRejectsUnknownKind(t *testing.T) {
	handler := DispatchEvent(dispatch.New(nil), nil)

	body := `{"kind":"reboot","user_id":42}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchEventValidatesBody(t *testing.T) {
	handler := DispatchEvent(dispatch.New(nil), nil)

	body := `{"kind":"buy_item"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_id")
}
