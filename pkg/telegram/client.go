package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.telegram.org"
	responseBodyReadLimit int64 = 2048
)

var errBotTokenRequired = errors.New("telegram bot token is required")

// RateLimitedError reports a 429 from the Bot API with the server-advised
// wait before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("telegram rate limited, retry after %s", e.RetryAfter)
}

// SendError is a non-retryable Bot API failure (blocked bot, bad file id).
type SendError struct {
	StatusCode  int
	Description string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("telegram send failed (%d): %s", e.StatusCode, e.Description)
}

// Client wraps the Telegram Bot API send surface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
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

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Bot API client given a bot token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errBotTokenRequired
	}

	client := &Client{
		token:      trimmed,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// SendMessage delivers a text message to the given chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	return c.call(ctx, "sendMessage", params)
}

// SendVideo delivers a stored video by Telegram file id.
func (c *Client) SendVideo(ctx context.Context, chatID int64, fileID, caption string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("video", fileID)
	if caption != "" {
		params.Set("caption", caption)
	}
	return c.call(ctx, "sendVideo", params)
}

// SendDocument delivers a stored document by Telegram file id.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("document", fileID)
	if caption != "" {
		params.Set("caption", caption)
	}
	return c.call(ctx, "sendDocument", params)
}

// GetChatMember reports whether the user is an active member of the chat.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (bool, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))

	body, err := c.request(ctx, "getChatMember", params)
	if err != nil {
		return false, err
	}

	var resp struct {
		Result struct {
			Status string `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode getChatMember response")
	}

	switch resp.Result.Status {
	case "creator", "administrator", "member", "restricted":
		return true, nil
	}
	return false, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values) error {
	_, err := c.request(ctx, method, params)
	return err
}

func (c *Client) request(ctx context.Context, method string, params url.Values) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.baseURL, "/"), c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build telegram request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute telegram request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	var apiErr struct {
		Description string `json:"description"`
		Parameters  struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	_ = json.Unmarshal(body, &apiErr)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(apiErr.Parameters.RetryAfter) * time.Second
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		return nil, &RateLimitedError{RetryAfter: retryAfter}
	}

	return nil, &SendError{StatusCode: resp.StatusCode, Description: apiErr.Description}
}
