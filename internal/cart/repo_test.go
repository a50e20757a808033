package cart

import (
	"context"
	"testing"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:cart_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS cart_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  item_id INTEGER NOT NULL,
  created_at DATETIME,
  CONSTRAINT idx_cart_user_item UNIQUE (user_id, item_id)
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestCartAddListRemove(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := int64(4001)
	require.NoError(t, repo.Add(ctx, &models.CartEntry{UserID: userID, ItemID: 5}))
	require.NoError(t, repo.Add(ctx, &models.CartEntry{UserID: userID, ItemID: 7}))

	entries, err := repo.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, repo.Remove(ctx, userID, 5))
	entries, err = repo.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ItemID)
}

func TestCartRejectsDuplicateEntry(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := int64(4002)
	require.NoError(t, repo.Add(ctx, &models.CartEntry{UserID: userID, ItemID: 5}))
	err := repo.Add(ctx, &models.CartEntry{UserID: userID, ItemID: 5})
	require.Error(t, err)
}

func TestCartClear(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := int64(4003)
	require.NoError(t, repo.Add(ctx, &models.CartEntry{UserID: userID, ItemID: 5}))
	require.NoError(t, repo.Add(ctx, &models.CartEntry{UserID: userID, ItemID: 7}))
	require.NoError(t, repo.Clear(ctx, userID))

	entries, err := repo.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
