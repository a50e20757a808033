package orders

import (
	"context"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"github.com/aslamtv/storebot-backend/pkg/pagination"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindUnpaidOrderWithExactItems matches by distinct item count and
// membership so subsets and supersets never collide with the request.
func (r *repository) FindUnpaidOrderWithExactItems(ctx context.Context, userID int64, itemIDs []int64) (*models.Order, error) {
	if len(itemIDs) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var orderID string
	err := r.db.WithContext(ctx).Raw(`
		SELECT o.id
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = ? AND o.paid = 0
		GROUP BY o.id
		HAVING COUNT(DISTINCT oi.item_id) = ?
		   AND COUNT(DISTINCT CASE WHEN oi.item_id IN ? THEN oi.item_id END) = ?
		ORDER BY MAX(o.created_at) DESC
		LIMIT 1`,
		userID, len(itemIDs), itemIDs, len(itemIDs),
	).Scan(&orderID).Error
	if err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, gorm.ErrRecordNotFound
	}

	return r.FindOrderByID(ctx, orderID)
}

func (r *repository) DeleteOrder(ctx context.Context, orderID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", orderID).Delete(&models.Order{}).Error
}

// MarkPaid flips paid from 0 to 1 and reports whether this call won the
// transition.
func (r *repository) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND paid = 0", orderID).
		Updates(map[string]any{"paid": models.OrderPaid, "paid_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateAmount(ctx context.Context, orderID string, amount int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND paid = 0", orderID).
		Update("amount", amount).Error
}

func (r *repository) CountPaidOrders(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND paid = 1", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListOrders(ctx context.Context, userID int64, paid *int, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if paid != nil {
		query = query.Where("paid = ?", *paid)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID.String(),
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
