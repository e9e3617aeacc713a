package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrUnexpectedDatabase = errors.New("unexpected database error")
)

// PostgresRepo reads login sessions and writes game outcomes. Sessions are
// written by the auth service in the connect-pg-simple layout.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedDatabase, err)
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

// ResolveAccount returns the user id stored in a live session.
func (r *PostgresRepo) ResolveAccount(ctx context.Context, sid string) (string, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT sess->'passport'->>'user' FROM session WHERE sid = $1 AND expire > now()`, sid)

	var user *string
	if err := row.Scan(&user); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return "", ErrAccountNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return "", err
		default:
			return "", wrap(err)
		}
	}
	if user == nil || *user == "" {
		// logged-out session
		return "", ErrAccountNotFound
	}
	return *user, nil
}

// RecordOutcome counts one finished game for the account, and a win if won.
func (r *PostgresRepo) RecordOutcome(ctx context.Context, accountID string, won bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		    SET games_played = games_played + 1,
		        games_won = games_won + CASE WHEN $2 THEN 1 ELSE 0 END
		  WHERE id::text = $1`, accountID, won)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func wrap(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (%s)", ErrUnexpectedDatabase, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %w", ErrUnexpectedDatabase, err)
}
