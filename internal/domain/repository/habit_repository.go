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

// HabitRepository persists habits, their tag links and completion entries.
// Every habit read or write is scoped to the owning user.
type HabitRepository interface {
	CreateHabit(ctx context.Context, tx *sql.Tx, habit *model.Habit) error
	UpdateHabit(ctx context.Context, tx *sql.Tx, habit *model.Habit) error
	DeleteHabit(ctx context.Context, id, userID string) error
	FindHabitByID(ctx context.Context, id, userID string) (*model.Habit, error)
	ListHabitsByUser(ctx context.Context, userID string) ([]model.Habit, error)
	ListHabitsByTag(ctx context.Context, userID, tagID string) ([]model.Habit, error)

	AddTagsToHabit(ctx context.Context, tx *sql.Tx, habitID string, tagIDs []string) error
	GetTagsByHabitID(ctx context.Context, habitID string) ([]model.Tag, error)
	RemoveTagFromHabit(ctx context.Context, habitID, tagID string) error
	ClearHabitTags(ctx context.Context, tx *sql.Tx, habitID string) error

	CreateEntry(ctx context.Context, entry *model.Entry) error
	ListEntries(ctx context.Context, habitID string) ([]model.Entry, error)
}

type pgHabitRepository struct {
	db *sql.DB
}

func NewPgHabitRepository(db *sql.DB) HabitRepository {
	return &pgHabitRepository{db: db}
}

const habitColumns = `h.id, h.user_id, h.name, h.description, h.frequency, h.target_count, h.is_active, h.created_at, h.updated_at`

func (r *pgHabitRepository) CreateHabit(ctx context.Context, tx *sql.Tx, h *model.Habit) error {
	query := `INSERT INTO habits (id, user_id, name, description, frequency, target_count, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`

	err := conn(r.db, tx).QueryRowContext(ctx, query,
		h.ID, h.UserID, h.Name, h.Description, h.Frequency, h.TargetCount, h.IsActive,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgHabitRepository.CreateHabit: %w", err)
	}
	return nil
}

func (r *pgHabitRepository) UpdateHabit(ctx context.Context, tx *sql.Tx, h *model.Habit) error {
	query := `UPDATE habits SET
                name = $1, description = $2, frequency = $3, target_count = $4,
                is_active = $5, updated_at = CURRENT_TIMESTAMP
              WHERE id = $6 AND user_id = $7
              RETURNING updated_at`

	err := conn(r.db, tx).QueryRowContext(ctx, query,
		h.Name, h.Description, h.Frequency, h.TargetCount, h.IsActive, h.ID, h.UserID,
	).Scan(&h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgHabitRepository.UpdateHabit: %w", err)
	}
	return nil
}

// DeleteHabit removes the habit; entries and tag links cascade.
func (r *pgHabitRepository) DeleteHabit(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("pgHabitRepository.DeleteHabit: %w", err)
	}
	return expectAffected(res)
}

func (r *pgHabitRepository) FindHabitByID(ctx context.Context, id, userID string) (*model.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits h WHERE h.id = $1 AND h.user_id = $2`

	h := &model.Habit{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &h.Frequency,
		&h.TargetCount, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgHabitRepository.FindHabitByID: %w", err)
	}

	h.Tags, err = r.GetTagsByHabitID(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *pgHabitRepository) ListHabitsByUser(ctx context.Context, userID string) ([]model.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits h
	          WHERE h.user_id = $1
	          ORDER BY h.created_at DESC`
	habits, err := r.queryHabits(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgHabitRepository.ListHabitsByUser: %w", err)
	}
	return habits, r.attachTags(ctx, habits)
}

func (r *pgHabitRepository) ListHabitsByTag(ctx context.Context, userID, tagID string) ([]model.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits h
	          JOIN habit_tags ht ON ht.habit_id = h.id
	          WHERE h.user_id = $1 AND ht.tag_id = $2
	          ORDER BY h.created_at DESC`
	habits, err := r.queryHabits(ctx, query, userID, tagID)
	if err != nil {
		return nil, fmt.Errorf("pgHabitRepository.ListHabitsByTag: %w", err)
	}
	return habits, r.attachTags(ctx, habits)
}

func (r *pgHabitRepository) queryHabits(ctx context.Context, query string, args ...any) ([]model.Habit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.Name, &h.Description, &h.Frequency,
			&h.TargetCount, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
		); err != nil {
			return nil, err
		}
		h.Tags = []model.Tag{}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// attachTags loads the tags of all habits in one query.
func (r *pgHabitRepository) attachTags(ctx context.Context, habits []model.Habit) error {
	if len(habits) == 0 {
		return nil
	}

	index := make(map[string]int, len(habits))
	placeholders := make([]string, len(habits))
	args := make([]any, len(habits))
	for i, h := range habits {
		index[h.ID] = i
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = h.ID
	}

	query := fmt.Sprintf(`SELECT ht.habit_id, t.id, t.name, t.slug, t.color, t.created_at
	          FROM habit_tags ht
	          JOIN tags t ON t.id = ht.tag_id
	          WHERE ht.habit_id IN (%s)
	          ORDER BY t.name`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgHabitRepository.attachTags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var habitID string
		var t model.Tag
		if err := rows.Scan(&habitID, &t.ID, &t.Name, &t.Slug, &t.Color, &t.CreatedAt); err != nil {
			return fmt.Errorf("pgHabitRepository.attachTags scan: %w", err)
		}
		if i, ok := index[habitID]; ok {
			habits[i].Tags = append(habits[i].Tags, t)
		}
	}
	return rows.Err()
}

func (r *pgHabitRepository) AddTagsToHabit(ctx context.Context, tx *sql.Tx, habitID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	query := `INSERT INTO habit_tags (habit_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	db := conn(r.db, tx)
	for _, tagID := range tagIDs {
		if _, err := db.ExecContext(ctx, query, habitID, tagID); err != nil {
			if common.IsForeignKeyViolation(err) {
				return fmt.Errorf("tag %s does not exist: %w", tagID, common.ErrBadRequest)
			}
			return fmt.Errorf("pgHabitRepository.AddTagsToHabit: %w", err)
		}
	}
	return nil
}

func (r *pgHabitRepository) GetTagsByHabitID(ctx context.Context, habitID string) ([]model.Tag, error) {
	query := `SELECT t.id, t.name, t.slug, t.color, t.created_at
	          FROM tags t
	          JOIN habit_tags ht ON t.id = ht.tag_id
	          WHERE ht.habit_id = $1
	          ORDER BY t.name`
	rows, err := r.db.QueryContext(ctx, query, habitID)
	if err != nil {
		return nil, fmt.Errorf("pgHabitRepository.GetTagsByHabitID: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func (r *pgHabitRepository) RemoveTagFromHabit(ctx context.Context, habitID, tagID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habit_tags WHERE habit_id = $1 AND tag_id = $2`, habitID, tagID)
	if err != nil {
		return fmt.Errorf("pgHabitRepository.RemoveTagFromHabit: %w", err)
	}
	return expectAffected(res)
}

func (r *pgHabitRepository) ClearHabitTags(ctx context.Context, tx *sql.Tx, habitID string) error {
	if _, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM habit_tags WHERE habit_id = $1`, habitID); err != nil {
		return fmt.Errorf("pgHabitRepository.ClearHabitTags: %w", err)
	}
	return nil
}

func (r *pgHabitRepository) CreateEntry(ctx context.Context, e *model.Entry) error {
	query := `INSERT INTO entries (id, habit_id, completion_date, note)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, e.ID, e.HabitID, e.CompletionDate, e.Note).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgHabitRepository.CreateEntry: %w", err)
	}
	return nil
}

func (r *pgHabitRepository) ListEntries(ctx context.Context, habitID string) ([]model.Entry, error) {
	query := `SELECT id, habit_id, completion_date, note, created_at
	          FROM entries
	          WHERE habit_id = $1
	          ORDER BY completion_date DESC`
	rows, err := r.db.QueryContext(ctx, query, habitID)
	if err != nil {
		return nil, fmt.Errorf("pgHabitRepository.ListEntries: %w", err)
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.HabitID, &e.CompletionDate, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgHabitRepository.ListEntries scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
