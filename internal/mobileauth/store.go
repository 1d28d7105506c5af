package mobileauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	redisclient "github.com/marvista/community-portal-backend/pkg/redis"
)

// ErrAttemptNotFound covers unknown, expired, and already-consumed attempts.
var ErrAttemptNotFound = errors.New("sign-in attempt not found")

// Attempt is one pending mobile sign-in, correlated by the signInId handed to
// the client. The provider session is bound server-side by the callback; the
// client never supplies it.
type Attempt struct {
	Provider       string    `json:"provider"`
	ClerkSessionID string    `json:"clerk_session_id,omitempty"`
	ClerkUserID    string    `json:"clerk_user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Bound reports whether the callback has attached a provider session.
func (a *Attempt) Bound() bool {
	return a != nil && a.ClerkSessionID != ""
}

type attemptKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SignInAttemptKey(signInID string) string
}

// Store keeps pending attempts in redis with a TTL so abandoned sign-ins
// expire on their own.
type Store struct {
	kv  attemptKV
	ttl time.Duration
}

// NewStore builds the attempt store on top of the shared redis client.
func NewStore(client *redisclient.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("attempt ttl must be positive")
	}
	return &Store{kv: client, ttl: ttl}, nil
}

// Create stores a pending attempt under the caller's correlation ID.
func (s *Store) Create(ctx context.Context, signInID, provider string) error {
	attempt := Attempt{Provider: provider, CreatedAt: time.Now().UTC()}
	return s.put(ctx, signInID, attempt)
}

// Get loads a pending attempt.
func (s *Store) Get(ctx context.Context, signInID string) (*Attempt, error) {
	raw, err := s.kv.Get(ctx, s.kv.SignInAttemptKey(signInID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	var attempt Attempt
	if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
		return nil, fmt.Errorf("decoding sign-in attempt: %w", err)
	}
	return &attempt, nil
}

// Bind attaches the verified provider session to the pending attempt.
func (s *Store) Bind(ctx context.Context, signInID, clerkSessionID, clerkUserID string) error {
	attempt, err := s.Get(ctx, signInID)
	if err != nil {
		return err
	}
	attempt.ClerkSessionID = clerkSessionID
	attempt.ClerkUserID = clerkUserID
	return s.put(ctx, signInID, *attempt)
}

// Delete consumes the attempt. Attempts are single use.
func (s *Store) Delete(ctx context.Context, signInID string) error {
	return s.kv.Del(ctx, s.kv.SignInAttemptKey(signInID))
}

func (s *Store) put(ctx context.Context, signInID string, attempt Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encoding sign-in attempt: %w", err)
	}
	return s.kv.Set(ctx, s.kv.SignInAttemptKey(signInID), string(payload), s.ttl)
}
