package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastories/server/internal/auth"
)

var _ auth.SessionRepository = (*SessionRepository)(nil)

type SessionRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *SessionRepository) Create(ctx context.Context, session auth.Session) error {
	_, err := pick(r.pool, r.tx).Exec(ctx, `
INSERT INTO sessions (id, user_id, email, role, community_id, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`,
		session.ID,
		session.UserID,
		session.Email,
		string(session.Role),
		session.CommunityID,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*auth.Session, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT id, user_id, email, role, community_id, created_at, expires_at
  FROM sessions
 WHERE id = $1
`, id)

	var session auth.Session
	var role string
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Email,
		&role,
		&session.CommunityID,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	session.Role = auth.Role(role)
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
