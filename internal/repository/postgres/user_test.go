package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func TestUserRepository_CreateDuplicateUsername(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewUserRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	err := repo.Create(context.Background(), &model.User{Username: "sara", Email: "s@example.com", Role: model.RoleCustomer})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, "a user with that username already exists", appErr.Message)
}

func TestUserRepository_GetByUsername(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewUserRepository(base)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("sara").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "first_name", "last_name", "password_hash", "role",
			"is_active", "is_superuser", "login_attempts", "locked_until", "last_login_at",
			"created_at", "updated_at",
		}).AddRow(id.String(), "sara", "s@example.com", "Sara", "K", "hash", "CUSTOMER",
			true, false, 0, nil, nil, now, now))

	user, err := repo.GetByUsername(context.Background(), "sara")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.False(t, user.IsLocked(now))
}

func TestUserRepository_GetMissing(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewUserRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUserRepository_UpdateMissing(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewUserRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.User{Base: model.Base{ID: uuid.New()}})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUserRepository_ListBuildsFilters(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewUserRepository(base)

	role := model.RoleStaff
	mock.ExpectQuery(regexp.QuoteMeta("WHERE (username ILIKE $1 OR email ILIKE $1) AND role = $2 ORDER BY username LIMIT $3 OFFSET $4")).
		WithArgs("%ali%", role, 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	users, err := repo.List(context.Background(), model.UserFilter{
		ListParams: model.ListParams{Search: "ali", Page: 2, PageSize: 10},
		Role:       &role,
	})
	require.NoError(t, err)
	assert.Empty(t, users)
}
