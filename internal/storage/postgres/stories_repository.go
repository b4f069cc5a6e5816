package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastories/server/internal/domain/stories"
)

var _ stories.Repository = (*StoryRepository)(nil)

// StoryRepository persists stories plus their speaker and place association
// rows. Writes that touch the association tables run in a transaction.
type StoryRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const storyColumns = `id, ulid, community_id, title, description, language, media_path, created_at, updated_at`

func scanStory(row pgx.Row) (stories.Story, error) {
	var s stories.Story
	err := row.Scan(
		&s.ID,
		&s.ULID,
		&s.CommunityID,
		&s.Title,
		&s.Description,
		&s.Language,
		&s.MediaPath,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

// inTx runs fn inside the ambient transaction, or a fresh one when the
// repository is not already transactional.
func (r *StoryRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func loadAssociations(ctx context.Context, q queryer, table, column string, storyID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE story_id = $1 ORDER BY position ASC`, column, table), storyID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *StoryRepository) Create(ctx context.Context, story stories.Story) (stories.Story, error) {
	var created stories.Story
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO stories (id, ulid, community_id, title, description, language, media_path)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+storyColumns,
			story.ID,
			story.ULID,
			story.CommunityID,
			story.Title,
			story.Description,
			story.Language,
			story.MediaPath,
		)
		var err error
		created, err = scanStory(row)
		if err != nil {
			return fmt.Errorf("insert story: %w", err)
		}
		if err := insertAssociations(ctx, tx, "story_speakers", "speaker_id", story.ID, story.SpeakerIDs); err != nil {
			return err
		}
		return insertAssociations(ctx, tx, "story_places", "place_id", story.ID, story.PlaceIDs)
	})
	if err != nil {
		return stories.Story{}, err
	}
	created.SpeakerIDs = story.SpeakerIDs
	created.PlaceIDs = story.PlaceIDs
	return created, nil
}

func insertAssociations(ctx context.Context, tx pgx.Tx, table, column string, storyID uuid.UUID, ids []uuid.UUID) error {
	for position, id := range ids {
		query := fmt.Sprintf(`INSERT INTO %s (story_id, %s, position) VALUES ($1, $2, $3)`, table, column)
		if _, err := tx.Exec(ctx, query, storyID, id, position); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func (r *StoryRepository) load(ctx context.Context, row pgx.Row) (*stories.Story, error) {
	story, err := scanStory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, stories.ErrNotFound
		}
		return nil, fmt.Errorf("get story: %w", err)
	}

	q := pick(r.pool, r.tx)
	if story.SpeakerIDs, err = loadAssociations(ctx, q, "story_speakers", "speaker_id", story.ID); err != nil {
		return nil, err
	}
	if story.PlaceIDs, err = loadAssociations(ctx, q, "story_places", "place_id", story.ID); err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*stories.Story, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id)
	return r.load(ctx, row)
}

func (r *StoryRepository) GetByULID(ctx context.Context, ulid string) (*stories.Story, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE ulid = upper($1)`, ulid)
	return r.load(ctx, row)
}

func (r *StoryRepository) Update(ctx context.Context, story stories.Story) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE stories
   SET title = $2, description = $3, language = $4, media_path = $5, updated_at = now()
 WHERE id = $1
`,
			story.ID,
			story.Title,
			story.Description,
			story.Language,
			story.MediaPath,
		)
		if err != nil {
			return fmt.Errorf("update story: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return stories.ErrNotFound
		}
		if err := clearAssociations(ctx, tx, "story_speakers", story.ID); err != nil {
			return err
		}
		if err := insertAssociations(ctx, tx, "story_speakers", "speaker_id", story.ID, story.SpeakerIDs); err != nil {
			return err
		}
		if err := clearAssociations(ctx, tx, "story_places", story.ID); err != nil {
			return err
		}
		return insertAssociations(ctx, tx, "story_places", "place_id", story.ID, story.PlaceIDs)
	})
}

func clearAssociations(ctx context.Context, tx pgx.Tx, table string, storyID uuid.UUID) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE story_id = $1`, table), storyID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	return nil
}

func (r *StoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Association rows go with the story via ON DELETE CASCADE.
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return stories.ErrNotFound
	}
	return nil
}

func (r *StoryRepository) List(ctx context.Context, filters stories.Filters) (stories.ListResult, error) {
	q := pick(r.pool, r.tx)

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := q.Query(ctx, `
SELECT `+storyColumns+`
  FROM stories
 WHERE community_id = $1
   AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
   AND ($3 = '' OR language = $3)
 ORDER BY created_at DESC, ulid DESC
 LIMIT $4 OFFSET $5
`, filters.CommunityID, filters.Query, filters.Language, limit, filters.Offset)
	if err != nil {
		return stories.ListResult{}, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var result stories.ListResult
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return stories.ListResult{}, fmt.Errorf("scan story: %w", err)
		}
		result.Stories = append(result.Stories, story)
	}
	if err := rows.Err(); err != nil {
		return stories.ListResult{}, fmt.Errorf("iterate stories: %w", err)
	}

	for i := range result.Stories {
		story := &result.Stories[i]
		if story.SpeakerIDs, err = loadAssociations(ctx, q, "story_speakers", "speaker_id", story.ID); err != nil {
			return stories.ListResult{}, err
		}
		if story.PlaceIDs, err = loadAssociations(ctx, q, "story_places", "place_id", story.ID); err != nil {
			return stories.ListResult{}, err
		}
	}

	row := q.QueryRow(ctx, `
SELECT count(*) FROM stories
 WHERE community_id = $1
   AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
   AND ($3 = '' OR language = $3)
`, filters.CommunityID, filters.Query, filters.Language)
	if err := row.Scan(&result.Total); err != nil {
		return stories.ListResult{}, fmt.Errorf("count stories: %w", err)
	}
	return result, nil
}
