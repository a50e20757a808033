package cart

import (
	"context"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository owns cart entries. Prices are never stored here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Add(ctx context.Context, entry *models.CartEntry) error
	Remove(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
	List(ctx context.Context, userID int64) ([]models.CartEntry, error)
}

// View is the cart rendered with live catalog prices.
type View struct {
	Items []models.Item
	Total int64
}

// CheckoutResult is the outcome of converting a cart into an order.
type CheckoutResult struct {
	Order          *models.Order
	CreditsApplied int64
	AmountDue      int64
	PaymentLink    string
	PaidInFull     bool
}

// Service defines the cart operations.
type Service interface {
	Add(ctx context.Context, userID, itemID int64) error
	Remove(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
	View(ctx context.Context, userID int64) (*View, error)
	Checkout(ctx context.Context, userID int64) (*CheckoutResult, error)
}
