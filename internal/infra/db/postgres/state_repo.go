package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS conversation_states (
	user_id    TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// querier is the subset of *pgxpool.Pool the repo needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// StateRepo stores conversation states in Postgres, one row per user.
type StateRepo struct {
	db querier
}

func NewStateRepo(db querier) *StateRepo {
	return &StateRepo{db: db}
}

// EnsureSchema creates the table when missing.
func (r *StateRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return &domain.StoreUnavailableError{Op: "migrate", Err: describe(err)}
	}
	return nil
}

func (r *StateRepo) GetState(ctx context.Context, userID string) (model.State, bool, error) {
	var v string
	err := r.db.QueryRow(ctx, `SELECT state FROM conversation_states WHERE user_id = $1`, userID).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &domain.StoreUnavailableError{Op: "get", Err: describe(err)}
	}
	return model.State(v), true, nil
}

func (r *StateRepo) SetState(ctx context.Context, userID string, state model.State) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_states (user_id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		userID, string(state))
	if err != nil {
		return &domain.StoreUnavailableError{Op: "set", Err: describe(err)}
	}
	return nil
}

func (r *StateRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return &domain.StoreUnavailableError{Op: "ping", Err: err}
	}
	return nil
}

// describe keeps the server-side code of Postgres errors in the message.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &sqlStateError{code: pgErr.Code, err: err}
	}
	return err
}

type sqlStateError struct {
	code string
	err  error
}

func (e *sqlStateError) Error() string { return "sqlstate " + e.code + ": " + e.err.Error() }
func (e *sqlStateError) Unwrap() error { return e.err }
