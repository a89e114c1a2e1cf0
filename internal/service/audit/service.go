package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Auditor records who changed what. Implementations must not block the
// request that triggered the entry.
type Auditor interface {
	Log(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, opts *LogOptions)
}

type LogOptions struct {
	Changes  interface{}
	Metadata interface{}
}

type clientKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// WithClient stores the caller's address and user agent for audit entries
// written while handling the request.
func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// Write builds and stores one audit entry synchronously.
func (s *Service) Write(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, opts *LogOptions) error {
	entry, err := buildEntry(ctx, actorID, action, entityType, entityID, opts)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, entry)
}

func (s *Service) List(ctx context.Context, filter repository.AuditFilter) ([]*model.AuditLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

// Cleanup deletes entries older than the retention window.
func (s *Service) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	return s.repo.Cleanup(ctx, time.Now().AddDate(0, 0, -retentionDays))
}

func buildEntry(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, opts *LogOptions) (*model.AuditLog, error) {
	entry := &model.AuditLog{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
	}
	if actorID != uuid.Nil {
		entry.UserID = &actorID
	}
	if info, ok := ctx.Value(clientKey{}).(clientInfo); ok {
		entry.IPAddress = info.ip
		entry.UserAgent = info.userAgent
	}

	if opts != nil {
		var err error
		if opts.Changes != nil {
			if entry.Changes, err = json.Marshal(opts.Changes); err != nil {
				return nil, fmt.Errorf("failed to marshal audit changes: %w", err)
			}
		}
		if opts.Metadata != nil {
			if entry.Metadata, err = json.Marshal(opts.Metadata); err != nil {
				return nil, fmt.Errorf("failed to marshal audit metadata: %w", err)
			}
		}
	}
	return entry, nil
}
