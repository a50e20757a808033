package fulfillment

import (
	"context"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
)

// Throttle enforces the lifetime cap on resend operations. The counter only
// grows; there is no reset window.
type Throttle struct {
	repo Repository
	cap  int
}

// NewThrottle builds a resend throttle with the given lifetime cap.
func NewThrottle(repo Repository, cap int) *Throttle {
	return &Throttle{repo: repo, cap: cap}
}

// Check fails once the user has exhausted their lifetime resend budget.
func (t *Throttle) Check(ctx context.Context, userID int64) error {
	count, err := t.repo.CountResendLogs(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count resend operations")
	}
	if count >= int64(t.cap) {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "resend limit reached")
	}
	return nil
}

// Consume appends one throttle entry for a completed resend operation,
// regardless of how many items it actually sent.
func (t *Throttle) Consume(ctx context.Context, userID int64, itemCount int) error {
	entry := &models.ResendLogEntry{UserID: userID, ItemCount: itemCount}
	if err := t.repo.CreateResendLog(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record resend operation")
	}
	return nil
}
