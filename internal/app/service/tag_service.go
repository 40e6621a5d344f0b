package service

import (
	"context"
	"habit_tracker/internal/domain/model"
	"habit_tracker/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/samber/oops"
)

type TagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

type CreateTagRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=50"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

func (s *TagService) Create(ctx context.Context, req CreateTagRequest) (*model.Tag, error) {
	tag := &model.Tag{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Slug:  slug.Make(req.Name),
		Color: req.Color,
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, oops.Code("TAG_CREATE_FAILED").With("slug", tag.Slug).Wrap(err)
	}
	return tag, nil
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, oops.Code("TAG_LIST_FAILED").Wrap(err)
	}
	return tags, nil
}
