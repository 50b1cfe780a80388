package worker

import (
	"context"
	"sync"
	"time"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/ports/repository"
)

var _ repository.Locker = (*KeyedMutex)(nil)

// KeyedMutex is an in-process Locker: one lock per key, created on demand and
// dropped once nobody holds or waits for it. Keys never block each other.
type KeyedMutex struct {
	mu      sync.Mutex
	locks   map[string]*keyLock
	maxWait time.Duration
}

type keyLock struct {
	ch   chan struct{} // capacity 1; holding the token means holding the lock
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock), maxWait: 10 * time.Second}
}

// Lock waits for key, at most maxWait, then fails with domain.ErrLockTimeout.
// ttl is ignored: the lock lives until unlock is called.
func (k *KeyedMutex) Lock(ctx context.Context, key string, _ time.Duration) (repository.UnlockFunc, error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	deadline := time.NewTimer(k.maxWait)
	defer deadline.Stop()
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	case <-deadline.C:
		k.release(key, l)
		return nil, domain.ErrLockTimeout
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-l.ch
			k.release(key, l)
		})
		return nil
	}, nil
}

func (k *KeyedMutex) release(key string, l *keyLock) {
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

// Len reports how many keys are currently held or awaited.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
