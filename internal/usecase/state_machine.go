package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/repository"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
)

// Handler processes one event for the state it is registered under and
// returns the next state.
type Handler func(ctx context.Context, ev model.Event) (model.State, error)

// Handlers maps every conversation state to its handler.
type Handlers map[model.State]Handler

// AllowedTransitions lists, per state, every state its handler may move to.
func AllowedTransitions() map[model.State][]model.State {
	return map[model.State][]model.State{
		model.StateStart: {
			model.StateMenuShown,
			model.StateDescriptionShown,
		},
		model.StateMenuShown: {
			model.StateMenuShown,
			model.StateDescriptionShown,
			model.StateCartShown,
		},
		model.StateDescriptionShown: {
			model.StateDescriptionShown,
			model.StateMenuShown,
			model.StateCartShown,
		},
		model.StateCartShown: {
			model.StateCartShown,
			model.StateMenuShown,
			model.StateAwaitingEmail,
		},
		model.StateAwaitingEmail: {
			model.StateAwaitingEmail,
			model.StateStart,
			model.StateMenuShown,
		},
	}
}

// Outcome labels, also used as metric label values.
const (
	OutcomeOK           = "ok"
	OutcomeRejected     = "rejected"
	OutcomeBackendError = "backend_error"
	OutcomeStoreError   = "store_error"
	OutcomeConfigError  = "config_error"
	OutcomeFailed       = "failed"
)

// Result describes what happened to one event.
type Result struct {
	UserID    string
	Previous  model.State
	Next      model.State
	Persisted bool
	Err       error
}

// Outcome classifies Err.
func (r Result) Outcome() string {
	if r.Err == nil {
		return OutcomeOK
	}
	var (
		ve *domain.ValidationError
		ce *domain.TransitionConfigError
		be *domain.BackendError
		se *domain.StoreUnavailableError
	)
	switch {
	case errors.As(r.Err, &ve):
		return OutcomeRejected
	case errors.As(r.Err, &ce):
		return OutcomeConfigError
	case errors.As(r.Err, &be):
		return OutcomeBackendError
	case errors.As(r.Err, &se), errors.Is(r.Err, domain.ErrLockTimeout):
		return OutcomeStoreError
	default:
		return OutcomeFailed
	}
}

type Option func(*StateMachine)

// WithLockTTL bounds how long one user's lock may be held.
func WithLockTTL(d time.Duration) Option {
	return func(m *StateMachine) {
		if d > 0 {
			m.lockTTL = d
		}
	}
}

// StateMachine runs the resolve, dispatch, persist cycle for each event while
// holding that user's lock.
type StateMachine struct {
	states   repository.StateRepository
	locker   repository.Locker
	handlers Handlers
	allowed  map[model.State]map[model.State]struct{}
	lockTTL  time.Duration
	log      *zerolog.Logger
}

// NewStateMachine fails with a *domain.TransitionConfigError when a state has
// no handler or no transition entry.
func NewStateMachine(states repository.StateRepository, locker repository.Locker, handlers Handlers, logger *zerolog.Logger, opts ...Option) (*StateMachine, error) {
	if states == nil || locker == nil {
		return nil, fmt.Errorf("%w: state machine needs a state repository and a locker", domain.ErrInvalidArgument)
	}
	allowed := make(map[model.State]map[model.State]struct{})
	for from, tos := range AllowedTransitions() {
		set := make(map[model.State]struct{}, len(tos))
		for _, to := range tos {
			set[to] = struct{}{}
		}
		allowed[from] = set
	}
	for _, s := range model.AllStates() {
		if handlers[s] == nil {
			return nil, &domain.TransitionConfigError{State: s.String(), Reason: "no handler registered"}
		}
		if _, ok := allowed[s]; !ok {
			return nil, &domain.TransitionConfigError{State: s.String(), Reason: "no allowed transitions"}
		}
	}
	for s := range handlers {
		if !s.Valid() {
			return nil, &domain.TransitionConfigError{State: s.String(), Reason: "handler registered for unknown state"}
		}
	}

	m := &StateMachine{
		states:   states,
		locker:   locker,
		handlers: handlers,
		allowed:  allowed,
		lockTTL:  30 * time.Second,
		log:      logger,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Resolve returns the state the event must be handled in. The reset command
// forces START; a user with no stored state is in START.
func (m *StateMachine) Resolve(ctx context.Context, ev model.Event) (model.State, error) {
	if !ev.IsCallback() && ev.IsReset() {
		return model.StateStart, nil
	}
	state, ok, err := m.states.GetState(ctx, ev.UserID)
	if err != nil {
		return "", err
	}
	if !ok {
		return model.StateStart, nil
	}
	if !state.Valid() {
		return "", &domain.TransitionConfigError{State: state.String(), Reason: "stored value is not a known state"}
	}
	return state, nil
}

// Process handles one event. Errors are reported in the Result, never
// returned or panicked. The stored state changes only after the handler
// succeeded and its result passed the transition check.
func (m *StateMachine) Process(ctx context.Context, ev model.Event) (res Result) {
	res.UserID = ev.UserID
	if ev.UserID == "" {
		res.Err = fmt.Errorf("%w: event without user id", domain.ErrInvalidArgument)
		return res
	}

	unlock, err := m.locker.Lock(ctx, ev.UserID, m.lockTTL)
	if err != nil {
		res.Err = fmt.Errorf("lock user %s: %w", ev.UserID, err)
		return res
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			logging.With(ctx, m.log).Warn().Err(uerr).Msg("failed to release conversation lock")
		}
	}()

	current, err := m.Resolve(ctx, ev)
	if err != nil {
		res.Err = err
		return res
	}
	res.Previous = current
	res.Next = current

	start := time.Now()
	next, err := m.handlers[current](ctx, ev)
	metrics.ObserveHandler(current.String(), time.Since(start))
	if err != nil {
		res.Err = err
		return res
	}

	if _, ok := m.allowed[current][next]; !ok {
		res.Err = &domain.TransitionConfigError{
			State:  current.String(),
			Reason: fmt.Sprintf("handler returned disallowed next state %q", next),
		}
		return res
	}

	if err := m.states.SetState(ctx, ev.UserID, next); err != nil {
		res.Err = err
		return res
	}
	res.Next = next
	res.Persisted = true
	return res
}
