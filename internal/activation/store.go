package activation

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "activation:"

// Store keeps activation tokens in Redis until they expire or are consumed.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore constructs a Redis backed token store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Create issues a token for userID.
func (s *Store) Create(ctx context.Context, userID string) (*Token, error) {
	now := s.now()
	token := &Token{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(token)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, keyPrefix+token.ID, data, s.ttl).Err(); err != nil {
		return nil, err
	}
	return token, nil
}

// Find loads a live token.
func (s *Store) Find(ctx context.Context, id string) (*Token, error) {
	if id == "" {
		return nil, ErrTokenNotFound
	}
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	if s.now().After(token.ExpiresAt) {
		return nil, ErrTokenNotFound
	}
	return &token, nil
}

// Consume removes the token and returns it stamped with its use time. A token can be
// consumed once; later calls report ErrTokenNotFound.
func (s *Store) Consume(ctx context.Context, id string) (*Token, error) {
	data, err := s.client.GetDel(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	used := s.now()
	token.UsedAt = &used
	return &token, nil
}
