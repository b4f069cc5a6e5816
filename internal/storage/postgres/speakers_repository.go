package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastories/server/internal/domain/speakers"
)

var _ speakers.Repository = (*SpeakerRepository)(nil)

type SpeakerRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const speakerColumns = `id, community_id, name, birthdate, birthplace_id, photo_path, created_at, updated_at`

func scanSpeaker(row pgx.Row) (speakers.Speaker, error) {
	var s speakers.Speaker
	err := row.Scan(
		&s.ID,
		&s.CommunityID,
		&s.Name,
		&s.Birthdate,
		&s.BirthplaceID,
		&s.PhotoPath,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *SpeakerRepository) Create(ctx context.Context, speaker speakers.Speaker) (speakers.Speaker, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO speakers (id, community_id, name, birthdate, birthplace_id, photo_path)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+speakerColumns,
		speaker.ID,
		speaker.CommunityID,
		speaker.Name,
		speaker.Birthdate,
		speaker.BirthplaceID,
		speaker.PhotoPath,
	)
	created, err := scanSpeaker(row)
	if err != nil {
		return speakers.Speaker{}, fmt.Errorf("insert speaker: %w", err)
	}
	return created, nil
}

func (r *SpeakerRepository) GetByID(ctx context.Context, id uuid.UUID) (*speakers.Speaker, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE id = $1`, id)
	speaker, err := scanSpeaker(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, speakers.ErrNotFound
		}
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	return &speaker, nil
}

func (r *SpeakerRepository) Update(ctx context.Context, speaker speakers.Speaker) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `
UPDATE speakers
   SET name = $2, birthdate = $3, birthplace_id = $4, photo_path = $5, updated_at = now()
 WHERE id = $1
`,
		speaker.ID,
		speaker.Name,
		speaker.Birthdate,
		speaker.BirthplaceID,
		speaker.PhotoPath,
	)
	if err != nil {
		return fmt.Errorf("update speaker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return speakers.ErrNotFound
	}
	return nil
}

func (r *SpeakerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM speakers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete speaker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return speakers.ErrNotFound
	}
	return nil
}

func (r *SpeakerRepository) List(ctx context.Context, filters speakers.Filters) (speakers.ListResult, error) {
	q := pick(r.pool, r.tx)

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := q.Query(ctx, `
SELECT `+speakerColumns+`
  FROM speakers
 WHERE community_id = $1
   AND ($2 = '' OR name ILIKE '%' || $2 || '%')
 ORDER BY name ASC
 LIMIT $3 OFFSET $4
`, filters.CommunityID, filters.Query, limit, filters.Offset)
	if err != nil {
		return speakers.ListResult{}, fmt.Errorf("list speakers: %w", err)
	}
	defer rows.Close()

	var result speakers.ListResult
	for rows.Next() {
		speaker, err := scanSpeaker(rows)
		if err != nil {
			return speakers.ListResult{}, fmt.Errorf("scan speaker: %w", err)
		}
		result.Speakers = append(result.Speakers, speaker)
	}
	if err := rows.Err(); err != nil {
		return speakers.ListResult{}, fmt.Errorf("iterate speakers: %w", err)
	}

	row := q.QueryRow(ctx, `
SELECT count(*) FROM speakers
 WHERE community_id = $1
   AND ($2 = '' OR name ILIKE '%' || $2 || '%')
`, filters.CommunityID, filters.Query)
	if err := row.Scan(&result.Total); err != nil {
		return speakers.ListResult{}, fmt.Errorf("count speakers: %w", err)
	}
	return result, nil
}
