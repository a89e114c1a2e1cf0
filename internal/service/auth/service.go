package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

const (
	resetTokenExpiry = 1 * time.Hour
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgResetLinkSent      = "Password reset link sent."
	MsgPasswordReset      = "Password has been reset."
	MsgInvalidRefresh     = "Invalid refresh token"
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	emailSvc  email.Service
	auditor   audit.Auditor
	now       func() time.Time
}

func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, emailSvc email.Service, auditor audit.Auditor) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		emailSvc:  emailSvc,
		auditor:   auditor,
		now:       time.Now,
	}
}

// Signup creates a CUSTOMER account and signs it in.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.TokenResponse, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrWeakPassword) {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionSignup, model.AuditEntityUser, user.ID.String(), nil)
	return s.issueTokens(user)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(MsgInvalidCredentials, nil)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	now := s.now()
	if user.IsLocked(now) {
		return nil, apperrors.Unauthorized("account is locked, try again later", nil)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil || !user.IsActive {
		user.LoginAttempts++
		if user.LoginAttempts >= maxLoginAttempts {
			until := now.Add(lockoutDuration)
			user.LockedUntil = &until
			user.LoginAttempts = 0
			log.Warn().Str("username", user.Username).Time("locked_until", until).Msg("account locked")
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}
		return nil, apperrors.Unauthorized(MsgInvalidCredentials, nil)
	}

	user.LoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionLogin, model.AuditEntityUser, user.ID.String(), nil)
	return s.issueTokens(user)
}

// ForgotPassword stores a reset token and mails it. Unknown addresses are
// not reported to the caller.
func (s *Service) ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := security.NewResetToken()
	if err != nil {
		return err
	}
	if err := s.tokenRepo.StoreResetToken(ctx, user.ID, token, s.now().Add(resetTokenExpiry)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, user.Username, token); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send password reset email")
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	userID, err := s.tokenRepo.ValidateResetToken(ctx, req.Token)
	if err != nil {
		return err
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrWeakPassword) {
			return apperrors.BadRequest(err.Error(), err)
		}
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	user.LoginAttempts = 0
	user.LockedUntil = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.tokenRepo.InvalidateResetToken(ctx, req.Token); err != nil {
		return fmt.Errorf("failed to invalidate reset token: %w", err)
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionReset, model.AuditEntityUser, user.ID.String(), nil)
	return nil
}

func (s *Service) RefreshToken(ctx context.Context, req *model.RefreshTokenRequest) (*model.AccessTokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(req.Refresh)
	if err != nil {
		return nil, apperrors.BadRequest(MsgInvalidRefresh, err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, apperrors.BadRequest(MsgInvalidRefresh, err)
	}

	access, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &model.AccessTokenResponse{Access: access}, nil
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{Refresh: refresh, Access: access}, nil
}
