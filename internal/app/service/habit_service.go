package service

import (
	"context"
	"database/sql"
	"habit_tracker/internal/common/validation"
	"habit_tracker/internal/domain/model"
	"habit_tracker/internal/domain/repository"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

type HabitService struct {
	habitRepo repository.HabitRepository
	tagRepo   repository.TagRepository
	db        *sql.DB // For transactions
	now       func() time.Time
}

func NewHabitService(habitRepo repository.HabitRepository, tagRepo repository.TagRepository, db *sql.DB) *HabitService {
	return &HabitService{
		habitRepo: habitRepo,
		tagRepo:   tagRepo,
		db:        db,
		now:       time.Now,
	}
}

type CreateHabitRequest struct {
	Name        string               `json:"name" validate:"required,min=1,max=100"`
	Description *string              `json:"description"`
	Frequency   model.HabitFrequency `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	TargetCount *int                 `json:"targetCount" validate:"omitnil,gt=0"`
	TagIDs      []string             `json:"tagIds" validate:"omitempty,dive,uuid"`
}

func (r *CreateHabitRequest) ApplyDefaults() {
	if r.TargetCount == nil {
		n := model.DefaultTargetCount
		r.TargetCount = &n
	}
}

// UpdateHabitRequest changes only the fields that are present. A present
// tagIds replaces the habit's whole tag set.
type UpdateHabitRequest struct {
	Name        *string               `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string               `json:"description"`
	Frequency   *model.HabitFrequency `json:"frequency" validate:"omitnil,oneof=daily weekly monthly"`
	TargetCount *int                  `json:"targetCount" validate:"omitnil,gt=0"`
	IsActive    *bool                 `json:"isActive"`
	TagIDs      []string              `json:"tagIds" validate:"omitempty,dive,uuid"`
}

func (r *UpdateHabitRequest) OptionalBody() {}

type CompleteHabitRequest struct {
	Note *string `json:"note"`
}

func (r *CompleteHabitRequest) OptionalBody() {}

type AddTagsRequest struct {
	TagIDs []string `json:"tagIds" validate:"required,min=1,dive,uuid"`
}

func (s *HabitService) Create(ctx context.Context, userID string, req CreateHabitRequest) (*model.Habit, error) {
	tags, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	habit := &model.Habit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		TargetCount: model.DefaultTargetCount,
		IsActive:    true,
	}
	if req.TargetCount != nil {
		habit.TargetCount = *req.TargetCount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, oops.Code("HABIT_CREATE_FAILED").With("operation", "begin transaction").Wrap(err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.habitRepo.CreateHabit(ctx, tx, habit); err != nil {
		return nil, oops.Code("HABIT_CREATE_FAILED").With("user_id", userID).Wrap(err)
	}
	if err := s.habitRepo.AddTagsToHabit(ctx, tx, habit.ID, tagIDs(tags)); err != nil {
		return nil, oops.Code("HABIT_CREATE_FAILED").With("habit_id", habit.ID).Wrap(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, oops.Code("HABIT_CREATE_FAILED").With("operation", "commit").Wrap(err)
	}

	habit.Tags = tags
	return habit, nil
}

func (s *HabitService) List(ctx context.Context, userID string) ([]model.Habit, error) {
	habits, err := s.habitRepo.ListHabitsByUser(ctx, userID)
	if err != nil {
		return nil, oops.Code("HABIT_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	return habits, nil
}

// Get returns common.ErrNotFound both for missing habits and for habits
// owned by someone else.
func (s *HabitService) Get(ctx context.Context, userID, id string) (*model.Habit, error) {
	habit, err := s.habitRepo.FindHabitByID(ctx, id, userID)
	if err != nil {
		return nil, oops.Code("HABIT_GET_FAILED").With("habit_id", id).Wrap(err)
	}
	return habit, nil
}

func (s *HabitService) Update(ctx context.Context, userID, id string, req UpdateHabitRequest) (*model.Habit, error) {
	habit, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		habit.Name = *req.Name
	}
	if req.Description != nil {
		habit.Description = req.Description
	}
	if req.Frequency != nil {
		habit.Frequency = *req.Frequency
	}
	if req.TargetCount != nil {
		habit.TargetCount = *req.TargetCount
	}
	if req.IsActive != nil {
		habit.IsActive = *req.IsActive
	}

	var tags []model.Tag
	if req.TagIDs != nil {
		if tags, err = s.resolveTags(ctx, req.TagIDs); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, oops.Code("HABIT_UPDATE_FAILED").With("operation", "begin transaction").Wrap(err)
	}
	defer tx.Rollback()

	if err := s.habitRepo.UpdateHabit(ctx, tx, habit); err != nil {
		return nil, oops.Code("HABIT_UPDATE_FAILED").With("habit_id", id).Wrap(err)
	}
	if req.TagIDs != nil {
		if err := s.habitRepo.ClearHabitTags(ctx, tx, id); err != nil {
			return nil, oops.Code("HABIT_UPDATE_FAILED").With("habit_id", id).Wrap(err)
		}
		if err := s.habitRepo.AddTagsToHabit(ctx, tx, id, tagIDs(tags)); err != nil {
			return nil, oops.Code("HABIT_UPDATE_FAILED").With("habit_id", id).Wrap(err)
		}
		habit.Tags = tags
	}
	if err := tx.Commit(); err != nil {
		return nil, oops.Code("HABIT_UPDATE_FAILED").With("operation", "commit").Wrap(err)
	}
	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, userID, id string) error {
	if err := s.habitRepo.DeleteHabit(ctx, id, userID); err != nil {
		return oops.Code("HABIT_DELETE_FAILED").With("habit_id", id).Wrap(err)
	}
	return nil
}

// Complete records a completion of the habit at the current time.
func (s *HabitService) Complete(ctx context.Context, userID, id string, req CompleteHabitRequest) (*model.Entry, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	entry := &model.Entry{
		ID:             uuid.NewString(),
		HabitID:        id,
		CompletionDate: s.now().UTC(),
		Note:           req.Note,
	}
	if err := s.habitRepo.CreateEntry(ctx, entry); err != nil {
		return nil, oops.Code("HABIT_COMPLETE_FAILED").With("habit_id", id).Wrap(err)
	}
	return entry, nil
}

func (s *HabitService) Entries(ctx context.Context, userID, id string) ([]model.Entry, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	entries, err := s.habitRepo.ListEntries(ctx, id)
	if err != nil {
		return nil, oops.Code("HABIT_ENTRIES_FAILED").With("habit_id", id).Wrap(err)
	}
	return entries, nil
}

func (s *HabitService) ByTag(ctx context.Context, userID, tagID string) (*model.Tag, []model.Habit, error) {
	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return nil, nil, oops.Code("HABIT_BY_TAG_FAILED").With("tag_id", tagID).Wrap(err)
	}
	habits, err := s.habitRepo.ListHabitsByTag(ctx, userID, tagID)
	if err != nil {
		return nil, nil, oops.Code("HABIT_BY_TAG_FAILED").With("tag_id", tagID).Wrap(err)
	}
	return tag, habits, nil
}

func (s *HabitService) AddTags(ctx context.Context, userID, id string, req AddTagsRequest) (*model.Habit, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	tags, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}
	if err := s.habitRepo.AddTagsToHabit(ctx, nil, id, tagIDs(tags)); err != nil {
		return nil, oops.Code("HABIT_ADD_TAGS_FAILED").With("habit_id", id).Wrap(err)
	}
	return s.Get(ctx, userID, id)
}

func (s *HabitService) RemoveTag(ctx context.Context, userID, id, tagID string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.habitRepo.RemoveTagFromHabit(ctx, id, tagID); err != nil {
		return oops.Code("HABIT_REMOVE_TAG_FAILED").
			With("habit_id", id).
			With("tag_id", tagID).
			Wrap(err)
	}
	return nil
}

// resolveTags loads the tags named by ids, dropping duplicates. Unknown ids
// are reported as a validation failure on tagIds.
func (s *HabitService) resolveTags(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	tags, err := s.tagRepo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, oops.Code("HABIT_TAGS_LOOKUP_FAILED").Wrap(err)
	}
	if len(tags) == len(unique) {
		return tags, nil
	}

	found := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		found[t.ID] = struct{}{}
	}
	verr := &validation.Error{}
	for _, id := range unique {
		if _, ok := found[id]; !ok {
			verr.Fields = append(verr.Fields, validation.FieldError{
				Field:   "tagIds",
				Message: "Tag " + id + " does not exist",
			})
		}
	}
	return nil, verr
}

func tagIDs(tags []model.Tag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
