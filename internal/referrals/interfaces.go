package referrals

import (
	"context"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository owns referral edges and credits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateEdge(ctx context.Context, edge *models.ReferralEdge) error
	FindEdgeByReferred(ctx context.Context, referredID int64) (*models.ReferralEdge, error)
	MarkRewardGranted(ctx context.Context, edgeID int64) (bool, error)

	CreateCredit(ctx context.Context, credit *models.ReferralCredit) error
	FindUnusedCredits(ctx context.Context, ownerID int64) ([]models.ReferralCredit, error)
	MarkCreditsUsed(ctx context.Context, ids []int64) error
}

// PaidOrderCounter reports how many paid orders a user has.
type PaidOrderCounter interface {
	CountPaidOrders(ctx context.Context, userID int64) (int64, error)
}

// MembershipChecker reports whether a user currently satisfies the external
// channel-membership requirement.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
}

// Grant describes a reward that was just awarded to a referrer.
type Grant struct {
	ReferrerID int64
	Amount     int64
}

// Application is the result of consuming credits against an amount due.
type Application struct {
	RemainingDue int64
	Applied      int64
	ConsumedIDs  []int64
}

// ApplyHook runs inside the credit-consumption transaction after credits are
// marked used. A non-nil error rolls the whole consumption back.
type ApplyHook func(tx *gorm.DB, app *Application) error

// Service defines the referral reward operations.
type Service interface {
	RecordReferral(ctx context.Context, referrerID, referredID int64) error
	CheckAndGrant(ctx context.Context, referredID int64) (*Grant, error)
	ApplyCredits(ctx context.Context, userID int64, amountDue int64, hook ApplyHook) (*Application, error)
}
