package referrals

import (
	"context"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a referrals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEdge(ctx context.Context, edge *models.ReferralEdge) error {
	return r.db.WithContext(ctx).Create(edge).Error
}

func (r *repository) FindEdgeByReferred(ctx context.Context, referredID int64) (*models.ReferralEdge, error) {
	var edge models.ReferralEdge
	err := r.db.WithContext(ctx).
		Where("referred_id = ?", referredID).
		Order("created_at DESC").
		First(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// MarkRewardGranted flips the grant flag and reports whether this call won.
func (r *repository) MarkRewardGranted(ctx context.Context, edgeID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralEdge{}).
		Where("id = ? AND reward_granted = ?", edgeID, false).
		Update("reward_granted", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateCredit(ctx context.Context, credit *models.ReferralCredit) error {
	return r.db.WithContext(ctx).Create(credit).Error
}

func (r *repository) FindUnusedCredits(ctx context.Context, ownerID int64) ([]models.ReferralCredit, error) {
	var credits []models.ReferralCredit
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND used = ?", ownerID, false).
		Order("granted_at ASC, id ASC").
		Find(&credits).Error
	if err != nil {
		return nil, err
	}
	return credits, nil
}

func (r *repository) MarkCreditsUsed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.ReferralCredit{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"used": true, "used_at": now}).Error
}
