package referrals

import (
	"context"
	"testing"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupReferralsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:referrals_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	edgesDDL := `
CREATE TABLE IF NOT EXISTS referral_edges (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  referrer_id INTEGER NOT NULL,
  referred_id INTEGER NOT NULL UNIQUE,
  reward_granted INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	creditsDDL := `
CREATE TABLE IF NOT EXISTS referral_credits (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  owner_id INTEGER NOT NULL,
  amount INTEGER NOT NULL,
  used INTEGER NOT NULL DEFAULT 0,
  granted_at DATETIME,
  used_at DATETIME
);`

	require.NoError(t, db.Exec(edgesDDL).Error)
	require.NoError(t, db.Exec(creditsDDL).Error)
	return db
}

func TestMarkRewardGrantedWinsOnce(t *testing.T) {
	db := setupReferralsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	edge := &models.ReferralEdge{ReferrerID: 1, ReferredID: 2001}
	require.NoError(t, repo.CreateEdge(ctx, edge))

	won, err := repo.MarkRewardGranted(ctx, edge.ID)
	require.NoError(t, err)
	assert.True(t, won)

	again, err := repo.MarkRewardGranted(ctx, edge.ID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestFindUnusedCreditsOrderedOldestFirst(t *testing.T) {
	db := setupReferralsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ownerID := int64(2002)
	base := time.Now().UTC().Add(-time.Hour)
	newer := &models.ReferralCredit{OwnerID: ownerID, Amount: 50, GrantedAt: base.Add(10 * time.Minute)}
	older := &models.ReferralCredit{OwnerID: ownerID, Amount: 100, GrantedAt: base}
	used := &models.ReferralCredit{OwnerID: ownerID, Amount: 200, Used: true, GrantedAt: base}
	require.NoError(t, db.Create(newer).Error)
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(used).Error)

	credits, err := repo.FindUnusedCredits(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, credits, 2)
	assert.Equal(t, int64(100), credits[0].Amount)
	assert.Equal(t, int64(50), credits[1].Amount)
}

func TestMarkCreditsUsed(t *testing.T) {
	db := setupReferralsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ownerID := int64(2003)
	credit := &models.ReferralCredit{OwnerID: ownerID, Amount: 100, GrantedAt: time.Now().UTC()}
	require.NoError(t, db.Create(credit).Error)

	require.NoError(t, repo.MarkCreditsUsed(ctx, []int64{credit.ID}))

	remaining, err := repo.FindUnusedCredits(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
