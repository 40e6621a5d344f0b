package service

import (
	"context"
	"encoding/json"
	"errors"
	"habit_tracker/internal/common"
	"habit_tracker/internal/common/security"
	"habit_tracker/internal/common/validation"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newAuthService(t *testing.T) (*AuthService, *fakeUserRepo, *security.TokenService) {
	t.Helper()
	hasher, err := security.NewPasswordHasher(bcrypt.MinCost, 2, nil)
	require.NoError(t, err)
	tokens, err := security.NewTokenService([]byte(testSecret), time.Hour)
	require.NoError(t, err)
	users := newFakeUserRepo()
	svc, err := NewAuthService(users, hasher, tokens)
	require.NoError(t, err)
	return svc, users, tokens
}

func TestAuthService_Register(t *testing.T) {
	svc, users, tokens := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		Email:    "a@x.io",
		Username: "alice",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", resp.User.Email)
	assert.NotEmpty(t, resp.User.ID)

	stored, err := users.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cretpass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cretpass")))

	claims, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.ID)
	assert.Equal(t, "alice", claims.Username)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "s3cretpass")
	assert.NotContains(t, string(body), stored.PasswordHash)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()
	req := RegisterRequest{Email: "a@x.io", Username: "alice", Password: "s3cretpass"}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "a@x.io",
		Username: "alice",
		Password: strings.Repeat("é", 40),
	})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "password", verr.Fields[0].Field)
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterRequest{Email: "a@x.io", Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "a@x.io", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: "a@x.io", Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginRequest{Email: "a@x.io", Password: "wrong-password"})
	_, unknownEmail := svc.Login(ctx, LoginRequest{Email: "nobody@x.io", Password: "s3cretpass"})

	assert.ErrorIs(t, wrongPassword, common.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, common.ErrInvalidCredentials)
	assert.Equal(t, common.PublicMessage(wrongPassword), common.PublicMessage(unknownEmail))
	assert.Equal(t, common.HTTPStatusFromError(wrongPassword), common.HTTPStatusFromError(unknownEmail))
}

func TestAuthService_Login_RejectsSuffixBeyondBcryptLimit(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()
	password := strings.Repeat("p", security.MaxPasswordBytes)
	_, err := svc.Register(ctx, RegisterRequest{Email: "a@x.io", Username: "alice", Password: password})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@x.io", Password: password})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@x.io", Password: password + "-anything-else"})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthService_Login_CorruptHash(t *testing.T) {
	svc, users, _ := newAuthService(t)
	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterRequest{Email: "a@x.io", Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	u, err := users.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	u.PasswordHash = "not-a-bcrypt-hash"
	require.NoError(t, users.Update(ctx, u))

	_, err = svc.Login(ctx, LoginRequest{Email: "a@x.io", Password: "s3cretpass"})
	assert.ErrorIs(t, err, common.ErrVerification)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthService_Login_StorageError(t *testing.T) {
	svc, users, _ := newAuthService(t)
	users.findErr = errors.New("connection reset")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@x.io", Password: "s3cretpass"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, 500, common.HTTPStatusFromError(err))
}
