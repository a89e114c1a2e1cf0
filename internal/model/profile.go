package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

type CustomerProfile struct {
	Base
	UserID              uuid.UUID `json:"user_id" db:"user_id"`
	NationalID          string    `json:"national_id" db:"national_id"`
	Address             string    `json:"address" db:"address"`
	HouseNumber         string    `json:"house_number" db:"house_number"`
	PhoneNumber         *string   `json:"phone_number,omitempty" db:"phone_number"`
	HasMedicalHistory   bool      `json:"has_medical_history" db:"has_medical_history"`
	HasDrugHistory      bool      `json:"has_drug_history" db:"has_drug_history"`
	PrimaryPhysician    string    `json:"primary_physician" db:"primary_physician"`
	IsPremium           bool      `json:"is_premium" db:"is_premium"`
	OfflineAppointments int       `json:"offline_appointments" db:"offline_appointments"`
	LastVisitDate       *Date     `json:"last_visit_date,omitempty" db:"last_visit_date"`
}

func (p *CustomerProfile) Validate() error {
	if strings.TrimSpace(p.NationalID) == "" {
		return errors.New("national_id cannot be blank")
	}
	if len(p.NationalID) > 15 {
		return errors.New("national_id must be at most 15 characters")
	}
	if len(p.HouseNumber) > 15 {
		return errors.New("house_number must be at most 15 characters")
	}
	if len(p.PrimaryPhysician) > 50 {
		return errors.New("primary_physician must be at most 50 characters")
	}
	if p.OfflineAppointments < 0 {
		return errors.New("offline_appointments cannot be negative")
	}
	return nil
}

type ProfileFilter struct {
	ListParams
	UserID *uuid.UUID
}

type CreateProfileRequest struct {
	// UserID is only honoured on the admin endpoint.
	UserID              *uuid.UUID `json:"user_id"`
	NationalID          string     `json:"national_id" binding:"required,max=15"`
	Address             string     `json:"address"`
	HouseNumber         string     `json:"house_number" binding:"max=15"`
	PhoneNumber         *string    `json:"phone_number" binding:"omitempty,e164"`
	HasMedicalHistory   bool       `json:"has_medical_history"`
	HasDrugHistory      bool       `json:"has_drug_history"`
	PrimaryPhysician    string     `json:"primary_physician" binding:"max=50"`
	IsPremium           bool       `json:"is_premium"`
	OfflineAppointments int        `json:"offline_appointments" binding:"min=0"`
	LastVisitDate       *Date      `json:"last_visit_date"`
}

type UpdateProfileDetailsRequest struct {
	NationalID          *string `json:"national_id" binding:"omitempty,max=15"`
	Address             *string `json:"address"`
	HouseNumber         *string `json:"house_number" binding:"omitempty,max=15"`
	PhoneNumber         *string `json:"phone_number" binding:"omitempty,e164"`
	HasMedicalHistory   *bool   `json:"has_medical_history"`
	HasDrugHistory      *bool   `json:"has_drug_history"`
	PrimaryPhysician    *string `json:"primary_physician" binding:"omitempty,max=50"`
	IsPremium           *bool   `json:"is_premium"`
	OfflineAppointments *int    `json:"offline_appointments" binding:"omitempty,min=0"`
	LastVisitDate       *Date   `json:"last_visit_date"`
}
