package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/enums"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/redis"
)

// DefaultTTL bounds how long an abandoned conversation keeps its state.
const DefaultTTL = 30 * time.Minute

// Session is the per-user conversational state. The tagged state says what
// the next inbound message means; Payload carries step-specific context.
type Session struct {
	UserID  int64              `json:"user_id"`
	State   enums.SessionState `json:"state"`
	Payload map[string]string  `json:"payload,omitempty"`
}

// kv is the slice of the redis client the store needs.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Store keeps sessions in redis keyed by user id.
type Store struct {
	client kv
	ttl    time.Duration
}

// NewStore builds a session store with the default TTL.
func NewStore(client kv) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Store{client: client, ttl: DefaultTTL}, nil
}

// Get loads a user's session, or an idle one when none exists.
func (s *Store) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := s.client.Get(ctx, redis.SessionKey(userID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if raw == "" {
		return &Session{UserID: userID, State: enums.SessionIdle}, nil
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// corrupt state resets to idle rather than wedging the user
		return &Session{UserID: userID, State: enums.SessionIdle}, nil
	}
	return &session, nil
}

// Set persists a session under the store TTL.
func (s *Store) Set(ctx context.Context, session *Session) error {
	if session == nil || session.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "session user id required")
	}
	if !session.State.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown session state")
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := s.client.Set(ctx, redis.SessionKey(session.UserID), string(raw), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return nil
}

// Clear tears the session down once a flow completes or is cancelled.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, redis.SessionKey(userID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
	}
	return nil
}
