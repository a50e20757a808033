package users

import (
	"context"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository owns the roster of buyers who have talked to the bot.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Upsert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Service defines the buyer roster operations.
type Service interface {
	Record(ctx context.Context, userID int64, username, firstName string) error
	Get(ctx context.Context, userID int64) (*models.User, error)
}
