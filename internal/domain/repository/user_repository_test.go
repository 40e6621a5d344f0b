package repository

import (
	"context"
	"database/sql"
	"errors"
	"habit_tracker/internal/common"
	"habit_tracker/internal/domain/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var userRowColumns = []string{"id", "email", "username", "password_hash", "first_name", "last_name", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users \(id, email, username, password_hash, first_name, last_name\)`).
		WithArgs("u-1", "a@x.io", "alice", "$2a$hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &model.User{ID: "u-1", Email: "a@x.io", Username: "alice", PasswordHash: "$2a$hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
	assert.Equal(t, now, u.UpdatedAt)
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &model.User{ID: "u-1", Email: "a@x.io", Username: "alice"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("a@x.io").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "a@x.io", "alice", "$2a$hash", "Alice", nil, now, now))

	u, err := repo.FindByEmail(context.Background(), "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
	require.NotNil(t, u.FirstName)
	assert.Equal(t, "Alice", *u.FirstName)
	assert.Nil(t, u.LastName)
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ghost@x.io").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@x.io")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserRepository_FindByID_DBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs("u-1").
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE users SET username = \$1`).
		WithArgs("alice2", sqlmock.AnyArg(), sqlmock.AnyArg(), "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	u := &model.User{ID: "u-1", Username: "alice2"}
	require.NoError(t, repo.Update(context.Background(), u))
	assert.Equal(t, now, u.UpdatedAt)
}

func TestUserRepository_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs("u-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, NewPgUserRepository(db).Delete(context.Background(), "u-1"))
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs("u-2").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, NewPgUserRepository(db).Delete(context.Background(), "u-2"), common.ErrNotFound)
	})
}
