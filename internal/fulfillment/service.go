package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aslamtv/storebot-backend/internal/catalog"
	"github.com/aslamtv/storebot-backend/pkg/db"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"github.com/aslamtv/storebot-backend/pkg/enums"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/logger"
	"github.com/aslamtv/storebot-backend/pkg/metrics"
	"github.com/aslamtv/storebot-backend/pkg/telegram"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const maxSendAttempts = 3

// orderReader is the slice of the order ledger delivery needs.
type orderReader interface {
	FindOrderByID(ctx context.Context, id string) (*models.Order, error)
	FindOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
}

type service struct {
	repo     Repository
	orders   orderReader
	catalog  catalog.Repository
	sender   Sender
	prompter FeedbackPrompter
	throttle *Throttle
	logg     *logger.Logger
	metrics  *metrics.CommerceMetrics

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewService builds the fulfillment service.
func NewService(repo Repository, orders orderReader, catalogRepo catalog.Repository, sender Sender, prompter FeedbackPrompter, throttle *Throttle, logg *logger.Logger, m *metrics.CommerceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender required")
	}
	if throttle == nil {
		return nil, fmt.Errorf("throttle required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		orders:   orders,
		catalog:  catalogRepo,
		sender:   sender,
		prompter: prompter,
		throttle: throttle,
		logg:     logg,
		metrics:  m,
		sleep:    sleepContext,
	}, nil
}

// Deliver sends every undelivered item of a paid order to its buyer. A bad
// asset skips that item only; the order stays paid and retryable when
// nothing goes out.
func (s *service) Deliver(ctx context.Context, orderID string, userID int64) (*DeliveryResult, error) {
	started := time.Now()
	ctx = s.logg.WithOrderID(s.logg.WithUserID(ctx, userID), orderID)

	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.Paid != models.OrderPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order not paid")
	}

	delivered, err := s.repo.HasDeliveryForOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check prior delivery")
	}
	if delivered {
		return &DeliveryResult{AlreadyDelivered: true}, nil
	}

	items, err := s.orders.FindOrderItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}

	result := &DeliveryResult{}
	var sendErrs error
	for _, item := range items {
		sent, err := s.deliverItem(ctx, userID, orderID, item)
		if err != nil {
			result.Failed++
			sendErrs = multierr.Append(sendErrs, err)
			s.metrics.IncDelivery("failed")
			continue
		}
		if !sent {
			result.Skipped++
			s.metrics.IncDelivery("skipped")
			continue
		}
		result.Delivered++
		s.metrics.IncDelivery("delivered")
	}

	s.metrics.ObserveDeliveryDuration("order", time.Since(started))

	if result.Delivered == 0 && result.Skipped == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, sendErrs, "no items could be delivered")
	}

	if result.Delivered > 0 {
		s.maybePromptFeedback(ctx, userID, orderID, result)
	}
	if sendErrs != nil {
		s.logg.Warn(ctx, "partial delivery: "+sendErrs.Error())
	}
	return result, nil
}

// deliverItem sends one item unless a delivery record already exists.
// Returns (false, nil) when the item was skipped as already delivered.
func (s *service) deliverItem(ctx context.Context, userID int64, orderID string, item models.OrderItem) (bool, error) {
	already, err := s.repo.HasDelivery(ctx, userID, item.ItemID)
	if err != nil {
		return false, fmt.Errorf("check delivery for item %d: %w", item.ItemID, err)
	}
	if already {
		return false, nil
	}

	if err := s.sendWithRetry(ctx, userID, item.PayloadRef, enums.FileKind(item.FileKind), item.Title); err != nil {
		return false, fmt.Errorf("send item %d: %w", item.ItemID, err)
	}

	record := &models.DeliveryRecord{UserID: userID, ItemID: item.ItemID, OrderID: orderID}
	if err := s.repo.CreateDeliveryRecord(ctx, record); err != nil {
		// a concurrent run confirmed the same send first
		if db.IsUniqueViolation(err, "idx_delivery_user_item") {
			return false, nil
		}
		return false, fmt.Errorf("record delivery for item %d: %w", item.ItemID, err)
	}
	return true, nil
}

// sendWithRetry retries the same payload after the advised wait on a
// transient rate limit. Other failures are permanent.
func (s *service) sendWithRetry(ctx context.Context, chatID int64, payloadRef string, kind enums.FileKind, caption string) error {
	var lastErr error
	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		err := s.sender.SendPayload(ctx, chatID, payloadRef, kind, caption)
		if err == nil {
			return nil
		}

		var rateErr *telegram.RateLimitedError
		if !errors.As(err, &rateErr) {
			return err
		}
		lastErr = err

		if sleepErr := s.sleep(ctx, rateErr.RetryAfter); sleepErr != nil {
			return sleepErr
		}
	}
	return lastErr
}

// Resend pushes previously owned items again, sourced from the buyer's
// delivery history. One throttle entry is consumed per operation no matter
// how many items go out.
func (s *service) Resend(ctx context.Context, userID int64, scope ResendScope) (*ResendResult, error) {
	ctx = s.logg.WithUserID(ctx, userID)

	if err := s.throttle.Check(ctx, userID); err != nil {
		return nil, err
	}

	itemIDs, err := s.resolveScope(ctx, userID, scope)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "nothing owned in the requested scope")
	}

	items, err := s.catalog.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owned items")
	}

	started := time.Now()
	result := &ResendResult{}
	var sendErrs error
	for _, item := range items {
		if item.FileID == "" {
			continue
		}
		if err := s.sendWithRetry(ctx, userID, item.FileID, enums.FileKind(item.FileKind), item.Title); err != nil {
			result.Failed++
			sendErrs = multierr.Append(sendErrs, fmt.Errorf("resend item %d: %w", item.ID, err))
			continue
		}
		result.Sent++
	}
	s.metrics.ObserveDeliveryDuration("resend", time.Since(started))

	if err := s.throttle.Consume(ctx, userID, result.Sent); err != nil {
		return nil, err
	}

	if sendErrs != nil {
		s.logg.Warn(ctx, "partial resend: "+sendErrs.Error())
	}
	return result, nil
}

func (s *service) resolveScope(ctx context.Context, userID int64, scope ResendScope) ([]int64, error) {
	if scope.ItemID > 0 {
		owned, err := s.repo.HasDelivery(ctx, userID, scope.ItemID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check item ownership")
		}
		if !owned {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "item was never delivered to user")
		}
		return []int64{scope.ItemID}, nil
	}

	var since *time.Time
	if scope.Window > 0 {
		cutoff := time.Now().UTC().Add(-scope.Window)
		since = &cutoff
	}
	ids, err := s.repo.FindDeliveredItemIDs(ctx, userID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ownership history")
	}
	return dedupe(ids), nil
}

// Owned reports which of the given items the user has already received.
// Buy intents use it to refuse re-purchasing delivered content.
func (s *service) Owned(ctx context.Context, userID int64, itemIDs []int64) ([]int64, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	delivered, err := s.repo.FindDeliveredItemIDs(ctx, userID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ownership history")
	}

	deliveredSet := make(map[int64]struct{}, len(delivered))
	for _, id := range delivered {
		deliveredSet[id] = struct{}{}
	}

	owned := []int64{}
	for _, id := range dedupe(itemIDs) {
		if _, ok := deliveredSet[id]; ok {
			owned = append(owned, id)
		}
	}
	return owned, nil
}

// RecordFeedback stores at most one reaction per order.
func (s *service) RecordFeedback(ctx context.Context, orderID string, userID int64, mood enums.FeedbackMood, comment string) error {
	if !mood.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown feedback mood")
	}

	err := s.repo.CreateFeedback(ctx, &models.Feedback{
		OrderID: orderID,
		UserID:  userID,
		Mood:    string(mood),
		Comment: comment,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_feedback_order") {
			return pkgerrors.New(pkgerrors.CodeConflict, "feedback already recorded")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record feedback")
	}
	return nil
}

func (s *service) maybePromptFeedback(ctx context.Context, userID int64, orderID string, result *DeliveryResult) {
	if s.prompter == nil {
		return
	}
	exists, err := s.repo.HasFeedback(ctx, orderID)
	if err != nil || exists {
		return
	}
	if err := s.prompter.PromptFeedback(ctx, userID, orderID); err != nil {
		s.logg.Warn(ctx, "feedback prompt failed: "+err.Error())
		return
	}
	result.PromptedFeedback = true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
