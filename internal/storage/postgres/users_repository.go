package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const userColumns = `id, email, password_hash, first_name, last_name, role, community_id, created_at, updated_at`

func scanUser(row pgx.Row) (users.User, error) {
	var u users.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&role,
		&u.CommunityID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	u.Role = auth.Role(role)
	return u, err
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (users.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO users (id, email, password_hash, first_name, last_name, role, community_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+userColumns,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.CommunityID,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return users.User{}, users.ErrEmailTaken
		}
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE id = $1
`, id)
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE email = $1
`, email)
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user users.User) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `
UPDATE users
   SET password_hash = $2, first_name = $3, last_name = $4, role = $5, updated_at = now()
 WHERE id = $1
`,
		user.ID,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filters users.Filters) (users.ListResult, error) {
	q := pick(r.pool, r.tx)

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	var role *string
	if filters.Role != nil {
		value := string(*filters.Role)
		role = &value
	}

	rows, err := q.Query(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE ($1::uuid IS NULL OR community_id = $1)
   AND ($2::text IS NULL OR role = $2)
 ORDER BY email ASC
 LIMIT $3 OFFSET $4
`, filters.CommunityID, role, limit, filters.Offset)
	if err != nil {
		return users.ListResult{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var result users.ListResult
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return users.ListResult{}, fmt.Errorf("scan user: %w", err)
		}
		result.Users = append(result.Users, user)
	}
	if err := rows.Err(); err != nil {
		return users.ListResult{}, fmt.Errorf("iterate users: %w", err)
	}

	row := q.QueryRow(ctx, `
SELECT count(*) FROM users
 WHERE ($1::uuid IS NULL OR community_id = $1)
   AND ($2::text IS NULL OR role = $2)
`, filters.CommunityID, role)
	if err := row.Scan(&result.Total); err != nil {
		return users.ListResult{}, fmt.Errorf("count users: %w", err)
	}
	return result, nil
}
