package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.Form.Get("chat_id"))
		assert.Equal(t, "hello", r.Form.Get("text"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := NewClient("token-1", WithBaseURL(srv.URL))
	require.NoError(t, err)

	require.NoError(t, client.SendMessage(context.Background(), 42, "hello"))
	assert.Equal(t, "/bottoken-1/sendMessage", gotPath)
}

func TestSendVideoRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Too Many Requests","parameters":{"retry_after":7}}`))
	}))
	defer srv.Close()

	client, err := NewClient("token-1", WithBaseURL(srv.URL))
	require.NoError(t, err)

	err = client.SendVideo(context.Background(), 42, "file-1", "")
	var rateErr *RateLimitedError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 7*time.Second, rateErr.RetryAfter)
}

func TestSendDocumentPermanentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer srv.Close()

	client, err := NewClient("token-1", WithBaseURL(srv.URL))
	require.NoError(t, err)

	err = client.SendDocument(context.Background(), 42, "file-1", "caption")
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, http.StatusForbidden, sendErr.StatusCode)
	assert.Contains(t, sendErr.Description, "blocked")

	var rateErr *RateLimitedError
	assert.False(t, errors.As(err, &rateErr))
}

func TestGetChatMember(t *testing.T) {
	status := "member"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"status":"` + status + `"}}`))
	}))
	defer srv.Close()

	client, err := NewClient("token-1", WithBaseURL(srv.URL))
	require.NoError(t, err)

	joined, err := client.GetChatMember(context.Background(), -100, 42)
	require.NoError(t, err)
	assert.True(t, joined)

	status = "left"
	joined, err = client.GetChatMember(context.Background(), -100, 42)
	require.NoError(t, err)
	assert.False(t, joined)
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient("   ")
	require.Error(t, err)
}
