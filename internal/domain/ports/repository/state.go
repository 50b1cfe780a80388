package repository

import (
	"context"
	"time"

	"telegram-storefront/internal/domain/model"
)

// StateRepository is the port for the per-user conversation state.
// Implementations wrap failures in *domain.StoreUnavailableError.
type StateRepository interface {
	// GetState returns ok=false when the user has no stored state yet.
	GetState(ctx context.Context, userID string) (state model.State, ok bool, err error)
	SetState(ctx context.Context, userID string, state model.State) error
	Ping(ctx context.Context) error
}

// UnlockFunc releases a lock obtained from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes work on a single key (a user identity).
type Locker interface {
	// Lock blocks until the key is held, ctx is done, or the implementation gives up.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
