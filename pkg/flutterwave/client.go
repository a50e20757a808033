package flutterwave

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.flutterwave.com/v3"
	responseBodyReadLimit int64 = 1024

	// SignatureHeader carries the webhook secret hash on inbound events.
	SignatureHeader = "verif-hash"
)

var errSecretKeyRequired = errors.New("flutterwave secret key is required")

// Client wraps the Flutterwave payment API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Flutterwave client given a secret key.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(secretKey)
	if trimmedKey == "" {
		return nil, errSecretKeyRequired
	}

	client := &Client{
		secretKey:  trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// PaymentLinkRequest describes the hosted-payment-page request.
type PaymentLinkRequest struct {
	TxRef       string `json:"tx_ref"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Customer    struct {
		Email string `json:"email"`
		Name  string `json:"name,omitempty"`
	} `json:"customer"`
	Customizations struct {
		Title string `json:"title,omitempty"`
	} `json:"customizations"`
}

// CreatePaymentLink requests a hosted checkout link for the given order.
func (c *Client) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "flutterwave client not configured")
	}
	if strings.TrimSpace(req.TxRef) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "tx_ref is required")
	}
	if req.Amount <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal payment link request")
	}

	url := fmt.Sprintf("%s/payments", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payment link request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute payment link request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "payment link request failed")
	}

	var apiResp struct {
		Status string `json:"status"`
		Data   struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment link response")
	}
	if apiResp.Status != "success" || apiResp.Data.Link == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "flutterwave did not return a payment link")
	}

	return apiResp.Data.Link, nil
}

// VerifySignature compares the webhook hash header against the configured
// secret in constant time.
func VerifySignature(headerValue, webhookSecret string) bool {
	if webhookSecret == "" || headerValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(headerValue), []byte(webhookSecret)) == 1
}
