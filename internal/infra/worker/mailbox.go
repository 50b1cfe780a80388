package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var ErrMailboxFull = errors.New("mailbox full")

// Mailbox serializes tasks per key in front of a Pool. At most one task per
// key is queued or running in the pool; later tasks for the same key wait in
// that key's mailbox and run in arrival order on the same worker once the
// current one returns. A key that is stuck therefore holds one worker at most.
type Mailbox struct {
	pool  *Pool
	limit int
	log   *zerolog.Logger

	mu      sync.Mutex
	pending map[string][]Task // present while the key has a task in the pool
}

// NewMailbox wraps pool. limit caps the tasks waiting per key (not counting
// the one in the pool); limit <= 0 means 32.
func NewMailbox(pool *Pool, limit int, logger *zerolog.Logger) *Mailbox {
	if limit <= 0 {
		limit = 32
	}
	return &Mailbox{pool: pool, limit: limit, log: logger, pending: make(map[string][]Task)}
}

// Submit hands task to the pool, or parks it behind the key's running task.
// It blocks only while the pool queue is full, and returns ErrMailboxFull when
// the key already has limit tasks waiting.
func (m *Mailbox) Submit(ctx context.Context, key string, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	m.mu.Lock()
	if queue, busy := m.pending[key]; busy {
		if len(queue) >= m.limit {
			m.mu.Unlock()
			return ErrMailboxFull
		}
		m.pending[key] = append(queue, task)
		m.mu.Unlock()
		return nil
	}
	m.pending[key] = nil
	m.mu.Unlock()

	if err := m.pool.Submit(ctx, m.drain(key, task)); err != nil {
		m.mu.Lock()
		dropped := len(m.pending[key])
		delete(m.pending, key)
		m.mu.Unlock()
		if dropped > 0 {
			m.log.Warn().Str("key", key).Int("dropped", dropped).Msg("mailbox tasks dropped")
		}
		return err
	}
	return nil
}

// drain runs first and then every task that arrived for key meanwhile.
func (m *Mailbox) drain(key string, first Task) Task {
	return func(ctx context.Context) error {
		task := first
		for {
			if err := task(ctx); err != nil {
				m.log.Warn().Err(err).Str("key", key).Msg("task failed")
			}

			m.mu.Lock()
			queue := m.pending[key]
			if len(queue) == 0 || ctx.Err() != nil {
				delete(m.pending, key)
				m.mu.Unlock()
				if len(queue) > 0 {
					m.log.Warn().Str("key", key).Int("dropped", len(queue)).Msg("mailbox tasks dropped on shutdown")
				}
				return nil
			}
			task = queue[0]
			queue[0] = nil
			m.pending[key] = queue[1:]
			m.mu.Unlock()
		}
	}
}

// Len reports how many keys currently have a task in the pool.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
