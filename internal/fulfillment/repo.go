package fulfillment

import (
	"context"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fulfillment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateDeliveryRecord(ctx context.Context, record *models.DeliveryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) HasDelivery(ctx context.Context, userID, itemID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryRecord{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasDeliveryForOrder(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryRecord{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindDeliveredItemIDs(ctx context.Context, userID int64, since *time.Time) ([]int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.DeliveryRecord{}).
		Where("user_id = ?", userID).
		Order("created_at ASC")
	if since != nil {
		query = query.Where("created_at >= ?", since)
	}

	var ids []int64
	if err := query.Pluck("item_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) CountResendLogs(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ResendLogEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateResendLog(ctx context.Context, entry *models.ResendLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) HasFeedback(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}
