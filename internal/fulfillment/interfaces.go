package fulfillment

import (
	"context"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"github.com/aslamtv/storebot-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository owns delivery records, resend logs and feedback rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateDeliveryRecord(ctx context.Context, record *models.DeliveryRecord) error
	HasDelivery(ctx context.Context, userID, itemID int64) (bool, error)
	HasDeliveryForOrder(ctx context.Context, orderID string) (bool, error)
	FindDeliveredItemIDs(ctx context.Context, userID int64, since *time.Time) ([]int64, error)

	CountResendLogs(ctx context.Context, userID int64) (int64, error)
	CreateResendLog(ctx context.Context, entry *models.ResendLogEntry) error

	HasFeedback(ctx context.Context, orderID string) (bool, error)
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
}

// Sender pushes one delivery payload to the buyer's chat. Transient rate
// limits surface as *telegram.RateLimitedError.
type Sender interface {
	SendPayload(ctx context.Context, chatID int64, payloadRef string, kind enums.FileKind, caption string) error
}

// FeedbackPrompter asks the buyer to rate a freshly delivered order.
type FeedbackPrompter interface {
	PromptFeedback(ctx context.Context, userID int64, orderID string) error
}

// DeliveryResult summarizes one delivery run.
type DeliveryResult struct {
	Delivered        int
	Skipped          int
	Failed           int
	AlreadyDelivered bool
	PromptedFeedback bool
}

// ResendScope selects what a resend operation covers. Exactly one of Window
// or ItemID is set.
type ResendScope struct {
	Window time.Duration
	ItemID int64
}

// ResendResult summarizes one resend operation.
type ResendResult struct {
	Sent   int
	Failed int
}

// Service defines the fulfillment operations.
type Service interface {
	Deliver(ctx context.Context, orderID string, userID int64) (*DeliveryResult, error)
	Resend(ctx context.Context, userID int64, scope ResendScope) (*ResendResult, error)
	RecordFeedback(ctx context.Context, orderID string, userID int64, mood enums.FeedbackMood, comment string) error

	// Owned returns the subset of itemIDs already delivered to the user.
	Owned(ctx context.Context, userID int64, itemIDs []int64) ([]int64, error)
}
