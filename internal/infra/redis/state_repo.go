package redis

import (
	"context"
	"errors"
	"time"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo keeps each user's conversation state as a plain-text value.
type StateRepo struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewStateRepo builds the repo; ttl 0 keeps state until the store evicts it.
func NewStateRepo(client RedisClient, prefix string, ttl time.Duration) *StateRepo {
	return &StateRepo{client: client, prefix: prefix, ttl: ttl}
}

func (s *StateRepo) stateKey(userID string) string {
	return s.prefix + userID
}

func (s *StateRepo) GetState(ctx context.Context, userID string) (model.State, bool, error) {
	v, err := s.client.Get(ctx, s.stateKey(userID))
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &domain.StoreUnavailableError{Op: "get", Err: err}
	}
	// Unknown values are returned as-is; the state machine decides what to do with them.
	return model.State(v), true, nil
}

func (s *StateRepo) SetState(ctx context.Context, userID string, state model.State) error {
	if err := s.client.Set(ctx, s.stateKey(userID), string(state), s.ttl); err != nil {
		return &domain.StoreUnavailableError{Op: "set", Err: err}
	}
	return nil
}

func (s *StateRepo) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return &domain.StoreUnavailableError{Op: "ping", Err: err}
	}
	return nil
}
