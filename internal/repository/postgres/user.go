package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, role,
	is_active, is_superuser, login_attempts, locked_until, last_login_at, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, username, email, first_name, last_name, password_hash, role,
			is_active, is_superuser, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("failed to create user: %w", err), "user")
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *userRepository) getBy(ctx context.Context, cond string, value interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + cond

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	var w where
	w.search(filter.Search, "username", "email")
	if filter.Role != nil {
		w.add("role = ?", *filter.Role)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY username` + limit

	users := []*model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			username = $1,
			email = $2,
			first_name = $3,
			last_name = $4,
			password_hash = $5,
			role = $6,
			is_active = $7,
			is_superuser = $8,
			login_attempts = $9,
			locked_until = $10,
			last_login_at = $11,
			updated_at = $12
		WHERE id = $13
	`

	user.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.IsSuperuser,
		user.LoginAttempts,
		user.LockedUntil,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapError(fmt.Errorf("failed to update user: %w", err), "user")
	}
	return expectOne(result, "user")
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOne(result, "user")
}
