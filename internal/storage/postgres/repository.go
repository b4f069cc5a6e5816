// Package postgres implements the storage contracts over pgx. Each entity
// repository holds the shared pool plus an optional transaction; queryer()
// picks whichever is active so the same code runs inside and outside WithTx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/communities"
	"github.com/terrastories/server/internal/domain/places"
	"github.com/terrastories/server/internal/domain/speakers"
	"github.com/terrastories/server/internal/domain/stories"
	"github.com/terrastories/server/internal/domain/users"
	"github.com/terrastories/server/internal/storage"
)

type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Communities() communities.Repository {
	return &CommunityRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Stories() stories.Repository {
	return &StoryRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Speakers() speakers.Repository {
	return &SpeakerRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Places() places.Repository {
	return &PlaceRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Sessions() auth.SessionRepository {
	return &SessionRepository{pool: r.pool, tx: r.tx}
}

// WithTx runs fn against a repository bound to one transaction. Nested calls
// reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// queryer is the subset of pgx shared by pools and transactions.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pick(pool *pgxpool.Pool, tx pgx.Tx) queryer {
	if tx != nil {
		return tx
	}
	return pool
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error
// on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
