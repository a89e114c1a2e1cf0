package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type Service struct {
	repo    repository.UserRepository
	hasher  security.PasswordHasher
	auditor audit.Auditor
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, auditor audit.Auditor) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		auditor: auditor,
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
		IsSuperuser:  req.IsSuperuser,
	}
	if user.Role == "" {
		user.Role = model.RoleCustomer
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityUser, user.ID.String(), &audit.LogOptions{
		Changes: user,
	})
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if user.PasswordHash, err = s.hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityUser, user.ID.String(), &audit.LogOptions{
		Changes: req,
	})
	return user, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if id == actor.UserID {
		return apperrors.BadRequest("you cannot delete your own account", nil)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionDelete, model.AuditEntityUser, id.String(), nil)
	return nil
}

// GetSelf returns the caller's own record; any other id is forbidden.
func (s *Service) GetSelf(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.User, error) {
	if id != actor.UserID {
		return nil, apperrors.Forbidden("you can only view your own profile")
	}
	return s.repo.Get(ctx, id)
}

// UpdateSelf applies the fields a user may change on their own account.
func (s *Service) UpdateSelf(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	if id != actor.UserID {
		return nil, apperrors.Forbidden("you can only update your own profile")
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Password != nil {
		if user.PasswordHash, err = s.hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityUser, user.ID.String(), nil)
	return user, nil
}

// EnsureSuperuser creates an active ADMIN superuser unless the username is
// already taken. It reports whether a user was created.
func (s *Service) EnsureSuperuser(ctx context.Context, username, email, password string) (bool, error) {
	if username == "" || password == "" {
		return false, errors.New("superuser username and password are required")
	}

	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		log.Info().Str("username", username).Msg("superuser already exists")
		return false, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return false, fmt.Errorf("failed to look up superuser: %w", err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return false, err
	}
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		IsSuperuser:  true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return false, fmt.Errorf("failed to create superuser: %w", err)
	}

	s.auditor.Log(ctx, uuid.Nil, model.AuditActionCreate, model.AuditEntityUser, user.ID.String(), &audit.LogOptions{
		Metadata: map[string]string{"source": "createsuperuser"},
	})
	return true, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrWeakPassword) {
			return "", apperrors.BadRequest(err.Error(), err)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}
