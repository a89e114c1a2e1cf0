package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo    repository.ProfileRepository
	auditor audit.Auditor
}

func NewService(repo repository.ProfileRepository, auditor audit.Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Create stores a profile. Customers always create their own; admins may
// name the user.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateProfileRequest) (*model.CustomerProfile, error) {
	userID := actor.UserID
	if actor.IsAdmin() {
		if req.UserID == nil {
			return nil, apperrors.BadRequest("user_id is required", nil)
		}
		userID = *req.UserID
	}

	p := &model.CustomerProfile{
		UserID:              userID,
		NationalID:          req.NationalID,
		Address:             req.Address,
		HouseNumber:         req.HouseNumber,
		PhoneNumber:         req.PhoneNumber,
		HasMedicalHistory:   req.HasMedicalHistory,
		HasDrugHistory:      req.HasDrugHistory,
		PrimaryPhysician:    req.PrimaryPhysician,
		IsPremium:           req.IsPremium,
		OfflineAppointments: req.OfflineAppointments,
		LastVisitDate:       req.LastVisitDate,
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create customer profile: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityProfile, p.ID.String(), &audit.LogOptions{Changes: p})
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.CustomerProfile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.UserID != actor.UserID {
		return nil, apperrors.NotFound("customer profile", nil)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filter model.ProfileFilter) ([]*model.CustomerProfile, error) {
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}
	profiles, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer profiles: %w", err)
	}
	return profiles, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateProfileDetailsRequest) (*model.CustomerProfile, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.NationalID != nil {
		p.NationalID = *req.NationalID
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.HouseNumber != nil {
		p.HouseNumber = *req.HouseNumber
	}
	if req.PhoneNumber != nil {
		p.PhoneNumber = req.PhoneNumber
	}
	if req.HasMedicalHistory != nil {
		p.HasMedicalHistory = *req.HasMedicalHistory
	}
	if req.HasDrugHistory != nil {
		p.HasDrugHistory = *req.HasDrugHistory
	}
	if req.PrimaryPhysician != nil {
		p.PrimaryPhysician = *req.PrimaryPhysician
	}
	if req.IsPremium != nil {
		p.IsPremium = *req.IsPremium
	}
	if req.OfflineAppointments != nil {
		p.OfflineAppointments = *req.OfflineAppointments
	}
	if req.LastVisitDate != nil {
		p.LastVisitDate = req.LastVisitDate
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update customer profile: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityProfile, p.ID.String(), &audit.LogOptions{Changes: req})
	return p, nil
}
