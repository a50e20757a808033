package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslamtv/storebot-backend/internal/payments"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/flutterwave"
)

type stubPaymentsService struct {
	result    *payments.Result
	err       error
	gotSig    string
	gotBody   []byte
	callCount int
}

func (s *stubPaymentsService) HandleWebhook(_ context.Context, signature string, body []byte) (*payments.Result, error) {
	s.callCount++
	s.gotSig = signature
	s.gotBody = body
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func postWebhook(handler http.HandlerFunc, signature, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/flutterwave", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(flutterwave.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestFlutterwaveWebhookReportsPaidOutcome(t *testing.T) {
	svc := &stubPaymentsService{result: &payments.Result{
		Outcome: payments.OutcomePaid,
		Order:   &models.Order{ID: "order-1"},
	}}
	handler := FlutterwaveWebhook(svc, nil)

	rec := postWebhook(handler, "secret-hash", `{"event":"charge.completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "paid", envelope.Data["outcome"])
	assert.Equal(t, "order-1", envelope.Data["order_id"])

	assert.Equal(t, "secret-hash", svc.gotSig)
	assert.JSONEq(t, `{"event":"charge.completed"}`, string(svc.gotBody))
}

func TestFlutterwaveWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubPaymentsService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch")}
	handler := FlutterwaveWebhook(svc, nil)

	rec := postWebhook(handler, "wrong", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFlutterwaveWebhookAnswersBusinessOutcomesWith200(t *testing.T) {
	outcomes := []payments.Outcome{
		payments.OutcomeIgnoredEvent,
		payments.OutcomeDuplicateEvent,
		payments.OutcomeOrderNotFound,
		payments.OutcomeAlreadyPaid,
		payments.OutcomeAmountMismatch,
	}

	for _, outcome := range outcomes {
		svc := &stubPaymentsService{result: &payments.Result{Outcome: outcome}}
		handler := FlutterwaveWebhook(svc, nil)

		rec := postWebhook(handler, "secret-hash", `{}`)
		assert.Equalf(t, http.StatusOK, rec.Code, "outcome %s", outcome)
		assert.Containsf(t, rec.Body.String(), string(outcome), "outcome %s", outcome)
	}
}

func TestFlutterwaveWebhookWithoutService(t *testing.T) {
	handler := FlutterwaveWebhook(nil, nil)

	rec := postWebhook(handler, "secret-hash", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
