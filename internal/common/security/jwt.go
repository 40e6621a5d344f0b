package security

import (
	"errors"
	"habit_tracker/internal/common"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// MinSecretLength is the shortest HS256 secret the token service accepts.
const MinSecretLength = 32

// Claims is the identity asserted by a token.
type Claims struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService issues and verifies HS256 tokens. Verification is purely
// cryptographic: tokens are never looked up in storage and cannot be revoked
// before they expire.
type TokenService struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

// NewTokenService fails with common.ErrConfiguration when the secret is
// missing or too short, or when ttl is not positive.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_SECRET_MISSING").
			Wrapf(common.ErrConfiguration, "token signing secret is required")
	}
	if len(secret) < MinSecretLength {
		return nil, oops.Code("TOKEN_SECRET_SHORT").
			Wrapf(common.ErrConfiguration, "token signing secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, oops.Code("TOKEN_TTL_INVALID").
			With("ttl", ttl.String()).
			Wrapf(common.ErrConfiguration, "token lifetime must be positive")
	}
	return &TokenService{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

// Issue signs a token for the identity in c. IssuedAt and ExpiresAt on c are
// ignored and set from the service clock.
func (s *TokenService) Issue(c Claims) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      c.ID,
		"id":       c.ID,
		"email":    c.Email,
		"username": c.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return tokenString, nil
}

// Verify checks signature, structure and expiry. It returns
// common.ErrTokenExpired or common.ErrTokenInvalid on failure.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwtauth.VerifyToken(s.auth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return nil, oops.Code("TOKEN_EXPIRED").Wrap(common.ErrTokenExpired)
		}
		return nil, oops.Code("TOKEN_INVALID").Wrapf(common.ErrTokenInvalid, "%v", err)
	}
	if token == nil {
		return nil, oops.Code("TOKEN_INVALID").Wrap(common.ErrTokenInvalid)
	}

	private := jwt.MapClaims(token.PrivateClaims())
	id, err := stringClaim(private, "id")
	if err != nil {
		return nil, err
	}
	email, err := stringClaim(private, "email")
	if err != nil {
		return nil, err
	}
	username, err := stringClaim(private, "username")
	if err != nil {
		return nil, err
	}
	if token.Subject() != id {
		return nil, oops.Code("TOKEN_INVALID").Wrapf(common.ErrTokenInvalid, "subject does not match id claim")
	}

	return &Claims{
		ID:        id,
		Email:     email,
		Username:  username,
		IssuedAt:  token.IssuedAt(),
		ExpiresAt: token.Expiration(),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) (string, error) {
	v, ok := claims[key].(string)
	if !ok || v == "" {
		return "", oops.Code("TOKEN_INVALID").
			With("claim", key).
			Wrapf(common.ErrTokenInvalid, "%s claim is missing or not a string", key)
	}
	return v, nil
}
