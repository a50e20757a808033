package users

import (
	"context"
	"testing"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUsersRepo struct {
	users map[int64]*models.User
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubUsersRepo) Upsert(ctx context.Context, user *models.User) error {
	if s.users == nil {
		s.users = map[int64]*models.User{}
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestRecordRequiresUserID(t *testing.T) {
	svc, err := NewService(&stubUsersRepo{})
	require.NoError(t, err)

	err = svc.Record(context.Background(), 0, "handle", "Ada")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRecordAndGet(t *testing.T) {
	repo := &stubUsersRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	require.NoError(t, svc.Record(context.Background(), 42, "film_fan", "Ada"))

	user, err := svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "film_fan", user.Username)
}

func TestGetUnknownUser(t *testing.T) {
	svc, err := NewService(&stubUsersRepo{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
