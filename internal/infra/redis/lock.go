// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"sync"
	"time"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ repository.Locker = (*Locker)(nil)

// Locker serializes conversations across replicas with SET NX PX and a
// token-checked release. While held, the lock's TTL is renewed every third of
// the TTL, so a slow handler keeps it; the TTL only matters when the holder
// dies.
type Locker struct {
	cli     *redis.Client
	prefix  string
	retry   time.Duration
	maxWait time.Duration
}

func NewLocker(c *Client, prefix string) *Locker {
	return &Locker{
		cli:     c.cli,
		prefix:  prefix,
		retry:   50 * time.Millisecond,
		maxWait: 10 * time.Second,
	}
}

var luaExtend = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end`)

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (repository.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	deadline := time.NewTimer(l.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.cli.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, &domain.StoreUnavailableError{Op: "lock", Err: err}
		}
		if ok {
			stop := l.keepAlive(ctx, lockKey, token, ttl)
			var once sync.Once
			return func(ctx context.Context) error {
				once.Do(stop)
				return luaUnlock.Run(ctx, l.cli, []string{lockKey}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, domain.ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// keepAlive renews the lock until the returned stop is called or the lock
// turns out to belong to someone else.
func (l *Locker) keepAlive(ctx context.Context, lockKey, token string, ttl time.Duration) (stop func()) {
	if ttl <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := luaExtend.Run(ctx, l.cli, []string{lockKey}, token, ttl.Milliseconds()).Int()
				if err == nil && n == 0 {
					return
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
