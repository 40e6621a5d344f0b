package service

import (
	"context"
	"errors"
	"habit_tracker/internal/common"
	"habit_tracker/internal/common/security"
	"habit_tracker/internal/common/validation"
	"habit_tracker/internal/domain/model"
	"habit_tracker/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// PasswordHasher is the part of security.PasswordHasher the services use.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
	Cost() int
}

type TokenIssuer interface {
	Issue(c security.Claims) (string, error)
}

type AuthService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer

	// dummyHash is verified when the email is unknown so that both login
	// failure paths do the same bcrypt work.
	dummyHash string
}

func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer) (*AuthService, error) {
	dummy, err := security.HashPassword(uuid.NewString(), hasher.Cost())
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").Wrap(err)
	}
	return &AuthService{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Username  string  `json:"username" validate:"required,min=1,max=50"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	hashed, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, &validation.Error{Fields: []validation.FieldError{{
				Field:   "password",
				Message: "Must be at most 72 bytes",
			}}}
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hashed,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "create user").Wrap(err)
	}

	return s.respond(user)
}

// Login never tells the caller whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, lookupErr := s.userRepo.FindByEmail(ctx, req.Email)
	target := s.dummyHash
	switch {
	case lookupErr == nil:
		target = user.PasswordHash
	case !errors.Is(lookupErr, common.ErrNotFound):
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "find user").Wrap(lookupErr)
	}

	valid, err := s.hasher.Verify(ctx, req.Password, target)
	if err != nil {
		if lookupErr != nil {
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(common.ErrInvalidCredentials)
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if lookupErr != nil || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(common.ErrInvalidCredentials)
	}

	return s.respond(user)
}

func (s *AuthService) respond(user *model.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(security.Claims{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return &AuthResponse{User: user.Public(), Token: token}, nil
}
