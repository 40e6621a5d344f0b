package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"habit_tracker/internal/common"
	"habit_tracker/internal/domain/model"
	"strings"
)

type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	FindByID(ctx context.Context, id string) (*model.Tag, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
}

type pgTagRepository struct {
	db *sql.DB
}

func NewPgTagRepository(db *sql.DB) TagRepository {
	return &pgTagRepository{db: db}
}

func (r *pgTagRepository) Create(ctx context.Context, t *model.Tag) error {
	query := `INSERT INTO tags (id, name, slug, color) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, t.ID, t.Name, t.Slug, t.Color).Scan(&t.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("tag %q already exists: %w", t.Name, common.ErrConflict)
		}
		return fmt.Errorf("pgTagRepository.Create: %w", err)
	}
	return nil
}

func (r *pgTagRepository) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	t := &model.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, color, created_at FROM tags WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.Color, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTagRepository.FindByID: %w", err)
	}
	return t, nil
}

// FindByIDs returns the tags that exist among ids; unknown ids are skipped.
func (r *pgTagRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = ids[i]
	}
	query := fmt.Sprintf(`SELECT id, name, slug, color, created_at FROM tags WHERE id IN (%s) ORDER BY name`,
		strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgTagRepository.FindByIDs: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func (r *pgTagRepository) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug, color, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgTagRepository.List: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]model.Tag, error) {
	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}
