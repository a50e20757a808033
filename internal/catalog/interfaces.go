package catalog

import (
	"context"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes item lookups used by pricing, carts and delivery.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id int64) (*models.Item, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Item, error)
	FindByGroupKey(ctx context.Context, groupKey string) ([]models.Item, error)
	SearchByTitle(ctx context.Context, query string, limit int) ([]models.Item, error)
}

// Service is the read surface the bot handlers use to browse the catalog.
type Service interface {
	Item(ctx context.Context, id int64) (*models.Item, error)
	Items(ctx context.Context, ids []int64) ([]models.Item, error)
	Group(ctx context.Context, groupKey string) ([]models.Item, error)
	Search(ctx context.Context, query string) ([]models.Item, error)
}
