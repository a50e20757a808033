package payments

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/aslamtv/storebot-backend/internal/referrals"
	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "whsec-test"

type stubLedger struct {
	order         *models.Order
	markPaidCalls int
}

func (s *stubLedger) FindOrderByID(ctx context.Context, id string) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubLedger) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	s.markPaidCalls++
	if s.order.Paid == models.OrderPaid {
		return false, nil
	}
	s.order.Paid = models.OrderPaid
	return true, nil
}

type stubRewards struct {
	checked []int64
	grant   *referrals.Grant
}

func (s *stubRewards) CheckAndGrant(ctx context.Context, referredID int64) (*referrals.Grant, error) {
	s.checked = append(s.checked, referredID)
	return s.grant, nil
}

type stubNotifier struct {
	buyer    []string
	ops      []string
	rewarded []int64
}

func (s *stubNotifier) NotifyBuyerPaid(ctx context.Context, userID int64, order *models.Order) error {
	s.buyer = append(s.buyer, order.ID)
	return nil
}

func (s *stubNotifier) NotifyOpsPaid(ctx context.Context, order *models.Order) error {
	s.ops = append(s.ops, order.ID)
	return nil
}

func (s *stubNotifier) NotifyReferralReward(ctx context.Context, referrerID int64, amount int64) error {
	s.rewarded = append(s.rewarded, referrerID)
	return nil
}

type stubGuard struct {
	seen map[string]bool
}

func (s *stubGuard) FirstSeen(ctx context.Context, provider, eventID string) (bool, error) {
	key := provider + ":" + eventID
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func newWebhookService(t *testing.T, ledger *stubLedger, rewards *stubRewards, notifier *stubNotifier, guard eventGuard) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	cfg := config.FlutterwaveConfig{WebhookSecret: testSecret, Currency: "NGN"}
	var n Notifier
	if notifier != nil {
		n = notifier
	}
	svc, err := NewService(ledger, rewards, n, guard, logg, nil, cfg)
	require.NoError(t, err)
	return svc
}

func eventBody(t *testing.T, eventID int64, txRef string, amount float64, currency string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": "charge.completed",
		"data": map[string]any{
			"id":       eventID,
			"tx_ref":   txRef,
			"status":   "successful",
			"amount":   amount,
			"currency": currency,
		},
	})
	require.NoError(t, err)
	return body
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc := newWebhookService(t, &stubLedger{}, &stubRewards{}, &stubNotifier{}, nil)

	_, err := svc.HandleWebhook(context.Background(), "wrong", eventBody(t, 1, "ord-1", 500, "NGN"))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestHandleWebhookMarksPaidAndNotifies(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	rewards := &stubRewards{}
	notifier := &stubNotifier{}
	svc := newWebhookService(t, ledger, rewards, notifier, nil)

	result, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 1, "ord-1", 500, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, result.Outcome)
	assert.Equal(t, []string{"ord-1"}, notifier.buyer)
	assert.Equal(t, []string{"ord-1"}, notifier.ops)
	assert.Equal(t, []int64{42}, rewards.checked)
	assert.Empty(t, notifier.rewarded)
}

func TestHandleWebhookNotifiesReferrerOnGrant(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	rewards := &stubRewards{grant: &referrals.Grant{ReferrerID: 7, Amount: 200}}
	notifier := &stubNotifier{}
	svc := newWebhookService(t, ledger, rewards, notifier, nil)

	result, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 1, "ord-1", 500, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, result.Outcome)
	assert.Equal(t, []int64{7}, notifier.rewarded)
}

func TestHandleWebhookDuplicateCallbacksPayOnce(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	notifier := &stubNotifier{}
	svc := newWebhookService(t, ledger, &stubRewards{}, notifier, nil)

	first, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 1, "ord-1", 500, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, first.Outcome)

	second, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 2, "ord-1", 500, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, second.Outcome)

	assert.Len(t, notifier.buyer, 1)
	assert.Len(t, notifier.ops, 1)
}

func TestHandleWebhookEventGuardShortCircuits(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	svc := newWebhookService(t, ledger, &stubRewards{}, &stubNotifier{}, &stubGuard{})

	_, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 99, "ord-1", 500, "NGN"))
	require.NoError(t, err)

	result, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 99, "ord-1", 500, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicateEvent, result.Outcome)
	assert.Equal(t, 1, ledger.markPaidCalls)
}

func TestHandleWebhookAmountMismatchLeavesOrderUnpaid(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	notifier := &stubNotifier{}
	svc := newWebhookService(t, ledger, &stubRewards{}, notifier, nil)

	result, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 1, "ord-1", 400, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAmountMismatch, result.Outcome)
	assert.Equal(t, models.OrderUnpaid, ledger.order.Paid)
	assert.Empty(t, notifier.buyer)
}

func TestHandleWebhookOverpaymentRejected(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	notifier := &stubNotifier{}
	svc := newWebhookService(t, ledger, &stubRewards{}, notifier, nil)

	result, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 1, "ord-1", 600, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAmountMismatch, result.Outcome)
	assert.Equal(t, models.OrderUnpaid, ledger.order.Paid)
	assert.Empty(t, notifier.buyer)
}

func TestHandleWebhookCurrencyMismatch(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	svc := newWebhookService(t, ledger, &stubRewards{}, &stubNotifier{}, nil)

	result, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 1, "ord-1", 500, "USD"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAmountMismatch, result.Outcome)
	assert.Equal(t, models.OrderUnpaid, ledger.order.Paid)
}

func TestHandleWebhookUnknownOrderIsNoOp(t *testing.T) {
	svc := newWebhookService(t, &stubLedger{}, &stubRewards{}, &stubNotifier{}, nil)

	result, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 1, "ord-missing", 500, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeOrderNotFound, result.Outcome)
}

func TestHandleWebhookIgnoresBusinessIrrelevantEvents(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	svc := newWebhookService(t, ledger, &stubRewards{}, &stubNotifier{}, nil)

	body, err := json.Marshal(map[string]any{
		"event": "charge.completed",
		"data":  map[string]any{"id": 1, "tx_ref": "ord-1", "status": "failed", "amount": 500, "currency": "NGN"},
	})
	require.NoError(t, err)

	result, err := svc.HandleWebhook(context.Background(), testSecret, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnoredEvent, result.Outcome)
	assert.Zero(t, ledger.markPaidCalls)
}

func TestHandleWebhookMalformedBodyIsNoOp(t *testing.T) {
	svc := newWebhookService(t, &stubLedger{}, &stubRewards{}, &stubNotifier{}, nil)

	result, err := svc.HandleWebhook(context.Background(), testSecret, []byte("{not-json"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnoredEvent, result.Outcome)
}

func TestHandleWebhookNotifierFailureDoesNotRollBack(t *testing.T) {
	ledger := &stubLedger{order: &models.Order{ID: "ord-1", UserID: 42, Amount: 500}}
	svc := newWebhookService(t, ledger, &stubRewards{}, nil, nil)

	result, err := svc.HandleWebhook(context.Background(), testSecret, eventBody(t, 1, "ord-1", 500, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, result.Outcome)
	assert.Equal(t, models.OrderPaid, ledger.order.Paid)
}
