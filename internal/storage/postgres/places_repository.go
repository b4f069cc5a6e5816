package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastories/server/internal/domain/places"
)

var _ places.Repository = (*PlaceRepository)(nil)

type PlaceRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const placeColumns = `id, community_id, name, description, region, latitude, longitude, created_at, updated_at`

func scanPlace(row pgx.Row) (places.Place, error) {
	var p places.Place
	err := row.Scan(
		&p.ID,
		&p.CommunityID,
		&p.Name,
		&p.Description,
		&p.Region,
		&p.Latitude,
		&p.Longitude,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *PlaceRepository) Create(ctx context.Context, place places.Place) (places.Place, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO places (id, community_id, name, description, region, latitude, longitude)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+placeColumns,
		place.ID,
		place.CommunityID,
		place.Name,
		place.Description,
		place.Region,
		place.Latitude,
		place.Longitude,
	)
	created, err := scanPlace(row)
	if err != nil {
		return places.Place{}, fmt.Errorf("insert place: %w", err)
	}
	return created, nil
}

func (r *PlaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*places.Place, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id)
	place, err := scanPlace(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, places.ErrNotFound
		}
		return nil, fmt.Errorf("get place: %w", err)
	}
	return &place, nil
}

func (r *PlaceRepository) Update(ctx context.Context, place places.Place) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `
UPDATE places
   SET name = $2, description = $3, region = $4, latitude = $5, longitude = $6, updated_at = now()
 WHERE id = $1
`,
		place.ID,
		place.Name,
		place.Description,
		place.Region,
		place.Latitude,
		place.Longitude,
	)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return places.ErrNotFound
	}
	return nil
}

func (r *PlaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return places.ErrNotFound
	}
	return nil
}

func (r *PlaceRepository) List(ctx context.Context, filters places.Filters) (places.ListResult, error) {
	q := pick(r.pool, r.tx)

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := q.Query(ctx, `
SELECT `+placeColumns+`
  FROM places
 WHERE community_id = $1
   AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
   AND ($3 = '' OR region = $3)
 ORDER BY name ASC
 LIMIT $4 OFFSET $5
`, filters.CommunityID, filters.Query, filters.Region, limit, filters.Offset)
	if err != nil {
		return places.ListResult{}, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	var result places.ListResult
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return places.ListResult{}, fmt.Errorf("scan place: %w", err)
		}
		result.Places = append(result.Places, place)
	}
	if err := rows.Err(); err != nil {
		return places.ListResult{}, fmt.Errorf("iterate places: %w", err)
	}

	row := q.QueryRow(ctx, `
SELECT count(*) FROM places
 WHERE community_id = $1
   AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
   AND ($3 = '' OR region = $3)
`, filters.CommunityID, filters.Query, filters.Region)
	if err := row.Scan(&result.Total); err != nil {
		return places.ListResult{}, fmt.Errorf("count places: %w", err)
	}
	return result, nil
}
