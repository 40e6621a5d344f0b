package service

import (
	"context"
	"habit_tracker/internal/common"
	"habit_tracker/internal/domain/model"
	"habit_tracker/internal/domain/repository"

	"github.com/samber/oops"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

type UpdateUserRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=1,max=50"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
}

func (r *UpdateUserRequest) OptionalBody() {}

// Get returns the profile of id. Profiles carry the email address, so only
// the owner may read one.
func (s *UserService) Get(ctx context.Context, actorID, id string) (*model.PublicUser, error) {
	if actorID != id {
		return nil, oops.Code("USER_FORBIDDEN").With("user_id", id).Wrap(common.ErrForbidden)
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("user_id", id).Wrap(err)
	}
	public := user.Public()
	return &public, nil
}

// Update changes the profile of id. Only the owner may change it.
func (s *UserService) Update(ctx context.Context, actorID, id string, req UpdateUserRequest) (*model.PublicUser, error) {
	if actorID != id {
		return nil, oops.Code("USER_FORBIDDEN").With("user_id", id).Wrap(common.ErrForbidden)
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, oops.Code("USER_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FirstName != nil {
		user.FirstName = req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, oops.Code("USER_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}
	public := user.Public()
	return &public, nil
}

func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID != id {
		return oops.Code("USER_FORBIDDEN").With("user_id", id).Wrap(common.ErrForbidden)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return oops.Code("USER_DELETE_FAILED").With("user_id", id).Wrap(err)
	}
	return nil
}
