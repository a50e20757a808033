package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aslamtv/storebot-backend/internal/referrals"
	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/flutterwave"
	"github.com/aslamtv/storebot-backend/pkg/logger"
	"github.com/aslamtv/storebot-backend/pkg/metrics"
	"gorm.io/gorm"
)

// Outcome labels what a webhook event did. Every outcome except a signature
// failure is answered with a 200 so the gateway stops retrying.
type Outcome string

const (
	OutcomePaid           Outcome = "paid"
	OutcomeIgnoredEvent   Outcome = "ignored_event"
	OutcomeDuplicateEvent Outcome = "duplicate_event"
	OutcomeOrderNotFound  Outcome = "order_not_found"
	OutcomeAlreadyPaid    Outcome = "already_paid"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
)

// orderLedger is the slice of the order ledger reconciliation needs.
type orderLedger interface {
	FindOrderByID(ctx context.Context, id string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID string) (bool, error)
}

// rewardChecker runs the referral grant check for a buyer.
type rewardChecker interface {
	CheckAndGrant(ctx context.Context, referredID int64) (*referrals.Grant, error)
}

// Notifier delivers the post-payment messages.
type Notifier interface {
	NotifyBuyerPaid(ctx context.Context, userID int64, order *models.Order) error
	NotifyOpsPaid(ctx context.Context, order *models.Order) error
	NotifyReferralReward(ctx context.Context, referrerID int64, amount int64) error
}

// eventGuard deduplicates gateway events across processes.
type eventGuard interface {
	FirstSeen(ctx context.Context, provider, eventID string) (bool, error)
}

// Result is the reconciliation answer for one webhook event.
type Result struct {
	Outcome Outcome
	Order   *models.Order
}

// Service reconciles payment gateway callbacks against the order ledger.
type Service interface {
	HandleWebhook(ctx context.Context, signature string, body []byte) (*Result, error)
}

type service struct {
	orders    orderLedger
	referrals rewardChecker
	notifier  Notifier
	guard     eventGuard
	logg      *logger.Logger
	metrics   *metrics.CommerceMetrics
	cfg       config.FlutterwaveConfig
}

// NewService builds the reconciliation service. The notifier and guard are
// optional; reconciliation itself never depends on them.
func NewService(orders orderLedger, referrals rewardChecker, notifier Notifier, guard eventGuard, logg *logger.Logger, m *metrics.CommerceMetrics, cfg config.FlutterwaveConfig) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order ledger required")
	}
	if referrals == nil {
		return nil, fmt.Errorf("reward checker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:    orders,
		referrals: referrals,
		notifier:  notifier,
		guard:     guard,
		logg:      logg,
		metrics:   m,
		cfg:       cfg,
	}, nil
}

// HandleWebhook validates one gateway callback and applies it at most once.
// Business rejections come back as outcomes, not errors; only a bad
// signature or an infrastructure failure is an error.
func (s *service) HandleWebhook(ctx context.Context, signature string, body []byte) (*Result, error) {
	if !flutterwave.VerifySignature(signature, s.cfg.WebhookSecret) {
		s.metrics.IncWebhook("invalid_signature")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch")
	}

	var event flutterwave.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.metrics.IncWebhook("malformed")
		return &Result{Outcome: OutcomeIgnoredEvent}, nil
	}

	ctx = s.logg.WithEventKind(ctx, event.Event)

	if !event.Successful() {
		s.metrics.IncWebhook("ignored")
		return &Result{Outcome: OutcomeIgnoredEvent}, nil
	}

	if dup, outcome := s.duplicateEvent(ctx, event); dup {
		return &Result{Outcome: outcome}, nil
	}

	orderID := strings.TrimSpace(event.Data.TxRef)
	if orderID == "" {
		s.metrics.IncWebhook("ignored")
		return &Result{Outcome: OutcomeIgnoredEvent}, nil
	}
	ctx = s.logg.WithOrderID(ctx, orderID)

	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncWebhook("order_not_found")
			return &Result{Outcome: OutcomeOrderNotFound}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.Paid == models.OrderPaid {
		s.metrics.IncWebhook("already_paid")
		return &Result{Outcome: OutcomeAlreadyPaid, Order: order}, nil
	}

	// the reported amount must equal the amount still owed exactly;
	// overpayments are as suspect as underpayments
	amount, err := event.Data.AmountValue()
	if err != nil || amount != order.Amount || !strings.EqualFold(event.Data.Currency, s.cfg.Currency) {
		s.metrics.IncWebhook("amount_mismatch")
		s.logg.Warn(ctx, fmt.Sprintf("payment mismatch: got %s %s, order wants %d %s",
			event.Data.Amount.String(), event.Data.Currency, order.Amount, s.cfg.Currency))
		return &Result{Outcome: OutcomeAmountMismatch, Order: order}, nil
	}

	won, err := s.orders.MarkPaid(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if !won {
		// lost the race to a concurrent callback for the same order
		s.metrics.IncWebhook("already_paid")
		return &Result{Outcome: OutcomeAlreadyPaid, Order: order}, nil
	}

	order.Paid = models.OrderPaid
	s.metrics.IncWebhook("paid")
	s.afterPayment(ctx, order)

	return &Result{Outcome: OutcomePaid, Order: order}, nil
}

// duplicateEvent consults the cross-process event guard. Guard failures are
// ignored; the paid CAS is the real idempotency barrier.
func (s *service) duplicateEvent(ctx context.Context, event flutterwave.WebhookEvent) (bool, Outcome) {
	if s.guard == nil || event.Data.ID == 0 {
		return false, ""
	}
	first, err := s.guard.FirstSeen(ctx, "flutterwave", fmt.Sprintf("%d", event.Data.ID))
	if err != nil {
		s.logg.Warn(ctx, "event guard unavailable: "+err.Error())
		return false, ""
	}
	if !first {
		s.metrics.IncWebhook("duplicate")
		return true, OutcomeDuplicateEvent
	}
	return false, ""
}

// afterPayment runs the best-effort side effects of a won transition.
// Failures here never roll the payment back.
func (s *service) afterPayment(ctx context.Context, order *models.Order) {
	if s.notifier != nil {
		if err := s.notifier.NotifyBuyerPaid(ctx, order.UserID, order); err != nil {
			s.logg.Warn(ctx, "buyer notification failed: "+err.Error())
		}
		if err := s.notifier.NotifyOpsPaid(ctx, order); err != nil {
			s.logg.Warn(ctx, "ops notification failed: "+err.Error())
		}
	}

	grant, err := s.referrals.CheckAndGrant(ctx, order.UserID)
	if err != nil {
		s.logg.Warn(ctx, "referral grant check failed: "+err.Error())
		return
	}
	if grant != nil && s.notifier != nil {
		if err := s.notifier.NotifyReferralReward(ctx, grant.ReferrerID, grant.Amount); err != nil {
			s.logg.Warn(ctx, "referral reward notification failed: "+err.Error())
		}
	}
}
