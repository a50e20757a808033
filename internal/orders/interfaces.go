package orders

import (
	"context"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"github.com/aslamtv/storebot-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository owns the orders/order_items aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindOrderByID(ctx context.Context, id string) (*models.Order, error)
	FindOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)

	// FindUnpaidOrderWithExactItems returns the user's unpaid order whose
	// item set exactly equals itemIDs, or gorm.ErrRecordNotFound.
	FindUnpaidOrderWithExactItems(ctx context.Context, userID int64, itemIDs []int64) (*models.Order, error)

	DeleteOrder(ctx context.Context, orderID string) error
	MarkPaid(ctx context.Context, orderID string) (bool, error)

	// UpdateAmount lowers the amount still owed after credits are applied.
	// Only unpaid orders are touched.
	UpdateAmount(ctx context.Context, orderID string, amount int64) error
	CountPaidOrders(ctx context.Context, userID int64) (int64, error)

	// ListOrders pages through a user's orders newest first. A non-nil paid
	// narrows to paid or unpaid rows.
	ListOrders(ctx context.Context, userID int64, paid *int, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}

// Service defines the order ledger operations.
type Service interface {
	CreateOrReuse(ctx context.Context, userID int64, itemIDs []int64) (*models.Order, error)
	Cancel(ctx context.Context, orderID string, userID int64) error
	Get(ctx context.Context, orderID string) (*models.Order, error)
	Items(ctx context.Context, orderID string) ([]models.OrderItem, error)
	History(ctx context.Context, userID int64, paid *int, params pagination.Params) (*HistoryPage, error)
}

// HistoryPage is one page of a buyer's order history.
type HistoryPage struct {
	Orders     []models.Order
	NextCursor string
}
