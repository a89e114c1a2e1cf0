package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const profileColumns = `p.id, p.user_id, p.national_id, p.address, p.house_number, p.phone_number,
	p.has_medical_history, p.has_drug_history, p.primary_physician, p.is_premium,
	p.offline_appointments, p.last_visit_date, p.created_at, p.updated_at`

type profileRepository struct {
	BaseRepository
}

func NewProfileRepository(base BaseRepository) repository.ProfileRepository {
	return &profileRepository{base}
}

func (r *profileRepository) Create(ctx context.Context, p *model.CustomerProfile) error {
	query := `
		INSERT INTO customer_profiles (
			id, user_id, national_id, address, house_number, phone_number,
			has_medical_history, has_drug_history, primary_physician, is_premium,
			offline_appointments, last_visit_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.NationalID,
		p.Address,
		p.HouseNumber,
		p.PhoneNumber,
		p.HasMedicalHistory,
		p.HasDrugHistory,
		p.PrimaryPhysician,
		p.IsPremium,
		p.OfflineAppointments,
		p.LastVisitDate,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("failed to create customer profile: %w", err), "customer profile")
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context, id uuid.UUID) (*model.CustomerProfile, error) {
	return r.getBy(ctx, "p.id = $1", id)
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.CustomerProfile, error) {
	return r.getBy(ctx, "p.user_id = $1", userID)
}

func (r *profileRepository) getBy(ctx context.Context, cond string, value interface{}) (*model.CustomerProfile, error) {
	var p model.CustomerProfile
	query := `SELECT ` + profileColumns + ` FROM customer_profiles p WHERE ` + cond
	if err := r.db.GetContext(ctx, &p, query, value); err != nil {
		return nil, mapError(err, "customer profile")
	}
	return &p, nil
}

func (r *profileRepository) List(ctx context.Context, filter model.ProfileFilter) ([]*model.CustomerProfile, error) {
	var w where
	w.search(filter.Search, "p.national_id", "u.username")
	if filter.UserID != nil {
		w.add("p.user_id = ?", *filter.UserID)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + profileColumns + `
		FROM customer_profiles p
		JOIN users u ON u.id = p.user_id` + w.String() + ` ORDER BY p.created_at DESC` + limit

	profiles := []*model.CustomerProfile{}
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list customer profiles: %w", err)
	}
	return profiles, nil
}

func (r *profileRepository) Update(ctx context.Context, p *model.CustomerProfile) error {
	query := `
		UPDATE customer_profiles SET
			national_id = $1,
			address = $2,
			house_number = $3,
			phone_number = $4,
			has_medical_history = $5,
			has_drug_history = $6,
			primary_physician = $7,
			is_premium = $8,
			offline_appointments = $9,
			last_visit_date = $10,
			updated_at = $11
		WHERE id = $12
	`

	p.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		p.NationalID,
		p.Address,
		p.HouseNumber,
		p.PhoneNumber,
		p.HasMedicalHistory,
		p.HasDrugHistory,
		p.PrimaryPhysician,
		p.IsPremium,
		p.OfflineAppointments,
		p.LastVisitDate,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return mapError(fmt.Errorf("failed to update customer profile: %w", err), "customer profile")
	}
	return expectOne(result, "customer profile")
}
