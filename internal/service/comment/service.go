package comment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo    repository.CommentRepository
	auditor audit.Auditor
}

func NewService(repo repository.CommentRepository, auditor audit.Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateCommentRequest) (*model.Comment, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, apperrors.BadRequest("message cannot be blank", nil)
	}

	c := &model.Comment{UserID: actor.UserID, Message: msg}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityComment, c.ID.String(), nil)
	return c, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Comment, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && c.UserID != actor.UserID {
		return nil, apperrors.NotFound("comment", nil)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filter model.CommentFilter) ([]*model.Comment, error) {
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}
	comments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Update is admin-only; it is how comments are marked reviewed.
func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateCommentRequest) (*model.Comment, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Message != nil {
		msg := strings.TrimSpace(*req.Message)
		if msg == "" {
			return nil, apperrors.BadRequest("message cannot be blank", nil)
		}
		c.Message = msg
	}
	if req.IsReviewed != nil {
		c.IsReviewed = *req.IsReviewed
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityComment, c.ID.String(), &audit.LogOptions{Changes: req})
	return c, nil
}
