package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastories/server/internal/domain/communities"
)

var _ communities.Repository = (*CommunityRepository)(nil)

type CommunityRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const communityColumns = `id, name, slug, locale, public_stories, is_active, created_at, updated_at`

func scanCommunity(row pgx.Row) (communities.Community, error) {
	var c communities.Community
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Locale,
		&c.PublicStories,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *CommunityRepository) Create(ctx context.Context, community communities.Community) (communities.Community, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO communities (id, name, slug, locale, public_stories, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+communityColumns,
		community.ID,
		community.Name,
		community.Slug,
		community.Locale,
		community.PublicStories,
		community.IsActive,
	)
	created, err := scanCommunity(row)
	if err != nil {
		if isUniqueViolation(err, "communities_slug_key") {
			return communities.Community{}, communities.ErrSlugTaken
		}
		return communities.Community{}, fmt.Errorf("insert community: %w", err)
	}
	return created, nil
}

func (r *CommunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*communities.Community, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT `+communityColumns+`
  FROM communities
 WHERE id = $1
`, id)
	community, err := scanCommunity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, communities.ErrNotFound
		}
		return nil, fmt.Errorf("get community: %w", err)
	}
	return &community, nil
}

func (r *CommunityRepository) GetBySlug(ctx context.Context, slug string) (*communities.Community, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT `+communityColumns+`
  FROM communities
 WHERE slug = $1
`, slug)
	community, err := scanCommunity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, communities.ErrNotFound
		}
		return nil, fmt.Errorf("get community by slug: %w", err)
	}
	return &community, nil
}

func (r *CommunityRepository) Update(ctx context.Context, community communities.Community) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `
UPDATE communities
   SET name = $2, locale = $3, public_stories = $4, is_active = $5, updated_at = now()
 WHERE id = $1
`,
		community.ID,
		community.Name,
		community.Locale,
		community.PublicStories,
		community.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update community: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return communities.ErrNotFound
	}
	return nil
}

func (r *CommunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM communities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete community: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return communities.ErrNotFound
	}
	return nil
}

func (r *CommunityRepository) List(ctx context.Context, filters communities.Filters) (communities.ListResult, error) {
	q := pick(r.pool, r.tx)

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := q.Query(ctx, `
SELECT `+communityColumns+`
  FROM communities
 WHERE ($1::boolean IS NULL OR is_active = $1)
 ORDER BY slug ASC
 LIMIT $2 OFFSET $3
`, filters.IsActive, limit, filters.Offset)
	if err != nil {
		return communities.ListResult{}, fmt.Errorf("list communities: %w", err)
	}
	defer rows.Close()

	var result communities.ListResult
	for rows.Next() {
		community, err := scanCommunity(rows)
		if err != nil {
			return communities.ListResult{}, fmt.Errorf("scan community: %w", err)
		}
		result.Communities = append(result.Communities, community)
	}
	if err := rows.Err(); err != nil {
		return communities.ListResult{}, fmt.Errorf("iterate communities: %w", err)
	}

	row := q.QueryRow(ctx, `
SELECT count(*) FROM communities WHERE ($1::boolean IS NULL OR is_active = $1)
`, filters.IsActive)
	if err := row.Scan(&result.Total); err != nil {
		return communities.ListResult{}, fmt.Errorf("count communities: %w", err)
	}
	return result, nil
}
