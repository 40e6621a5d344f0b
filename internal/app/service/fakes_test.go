package service

import (
	"context"
	"database/sql"
	"habit_tracker/internal/common"
	"habit_tracker/internal/domain/model"
	"sort"
	"sync"
	"time"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	findErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return common.ErrConflict
		}
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeTagRepo struct {
	tags map[string]model.Tag
}

func newFakeTagRepo(tags ...model.Tag) *fakeTagRepo {
	f := &fakeTagRepo{tags: map[string]model.Tag{}}
	for _, t := range tags {
		f.tags[t.ID] = t
	}
	return f
}

func (f *fakeTagRepo) Create(_ context.Context, t *model.Tag) error {
	for _, existing := range f.tags {
		if existing.Slug == t.Slug || existing.Name == t.Name {
			return common.ErrConflict
		}
	}
	f.tags[t.ID] = *t
	return nil
}

func (f *fakeTagRepo) FindByID(_ context.Context, id string) (*model.Tag, error) {
	t, ok := f.tags[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTagRepo) FindByIDs(_ context.Context, ids []string) ([]model.Tag, error) {
	out := []model.Tag{}
	for _, id := range ids {
		if t, ok := f.tags[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTagRepo) List(_ context.Context) ([]model.Tag, error) {
	out := []model.Tag{}
	for _, t := range f.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeHabitRepo ignores the transaction argument; sqlmock asserts the
// begin/commit sequence separately.
type fakeHabitRepo struct {
	habits  map[string]model.Habit
	links   map[string]map[string]bool
	entries map[string][]model.Entry
	tags    *fakeTagRepo
}

func newFakeHabitRepo(tags *fakeTagRepo) *fakeHabitRepo {
	return &fakeHabitRepo{
		habits:  map[string]model.Habit{},
		links:   map[string]map[string]bool{},
		entries: map[string][]model.Entry{},
		tags:    tags,
	}
}

func (f *fakeHabitRepo) CreateHabit(_ context.Context, _ *sql.Tx, h *model.Habit) error {
	h.CreatedAt = time.Now().UTC()
	h.UpdatedAt = h.CreatedAt
	f.habits[h.ID] = *h
	return nil
}

func (f *fakeHabitRepo) UpdateHabit(_ context.Context, _ *sql.Tx, h *model.Habit) error {
	existing, ok := f.habits[h.ID]
	if !ok || existing.UserID != h.UserID {
		return common.ErrNotFound
	}
	f.habits[h.ID] = *h
	return nil
}

func (f *fakeHabitRepo) DeleteHabit(_ context.Context, id, userID string) error {
	existing, ok := f.habits[id]
	if !ok || existing.UserID != userID {
		return common.ErrNotFound
	}
	delete(f.habits, id)
	return nil
}

func (f *fakeHabitRepo) FindHabitByID(ctx context.Context, id, userID string) (*model.Habit, error) {
	h, ok := f.habits[id]
	if !ok || h.UserID != userID {
		return nil, common.ErrNotFound
	}
	h.Tags, _ = f.GetTagsByHabitID(ctx, id)
	return &h, nil
}

func (f *fakeHabitRepo) ListHabitsByUser(ctx context.Context, userID string) ([]model.Habit, error) {
	out := []model.Habit{}
	for _, h := range f.habits {
		if h.UserID == userID {
			h.Tags, _ = f.GetTagsByHabitID(ctx, h.ID)
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHabitRepo) ListHabitsByTag(ctx context.Context, userID, tagID string) ([]model.Habit, error) {
	out := []model.Habit{}
	for _, h := range f.habits {
		if h.UserID == userID && f.links[h.ID][tagID] {
			h.Tags, _ = f.GetTagsByHabitID(ctx, h.ID)
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHabitRepo) AddTagsToHabit(_ context.Context, _ *sql.Tx, habitID string, tagIDs []string) error {
	if f.links[habitID] == nil {
		f.links[habitID] = map[string]bool{}
	}
	for _, id := range tagIDs {
		f.links[habitID][id] = true
	}
	return nil
}

func (f *fakeHabitRepo) GetTagsByHabitID(_ context.Context, habitID string) ([]model.Tag, error) {
	out := []model.Tag{}
	for id := range f.links[habitID] {
		out = append(out, f.tags.tags[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeHabitRepo) RemoveTagFromHabit(_ context.Context, habitID, tagID string) error {
	if !f.links[habitID][tagID] {
		return common.ErrNotFound
	}
	delete(f.links[habitID], tagID)
	return nil
}

func (f *fakeHabitRepo) ClearHabitTags(_ context.Context, _ *sql.Tx, habitID string) error {
	delete(f.links, habitID)
	return nil
}

func (f *fakeHabitRepo) CreateEntry(_ context.Context, e *model.Entry) error {
	e.CreatedAt = time.Now().UTC()
	f.entries[e.HabitID] = append(f.entries[e.HabitID], *e)
	return nil
}

func (f *fakeHabitRepo) ListEntries(_ context.Context, habitID string) ([]model.Entry, error) {
	return append([]model.Entry{}, f.entries[habitID]...), nil
}
