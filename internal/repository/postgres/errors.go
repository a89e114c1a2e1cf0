package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// constraintMessages turns known constraint names into client-facing text.
var constraintMessages = map[string]string{
	"users_username_key":                  "a user with that username already exists",
	"users_email_key":                     "a user with that email already exists",
	"customer_profiles_user_id_key":       "customer profile already exists for this user",
	"customer_profiles_national_id_key":   "a profile with that national_id already exists",
	"reservation_schedules_slot_key":      "a schedule for this operator, date and time slot already exists",
	"reservations_one_confirmed_per_slot": "time slot already booked",
	"operator_shifts_slot_key":            "a shift for this operator, date and period already exists",
	"payments_paypal_transaction_id_key":  "payment with this transaction id already exists",
	"payments_one_open_per_reservation":   "reservation already has a pending or completed payment",
	"laser_areas_pkey":                    "laser area with this name already exists",
	"discount_codes_pkey":                 "discount code already exists",
}

// mapError translates driver errors into AppErrors. resource names the
// entity for not-found messages.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			msg, ok := constraintMessages[pqErr.Constraint]
			if !ok {
				msg = fmt.Sprintf("%s already exists", resource)
			}
			return apperrors.Conflict(msg, err)
		case pqForeignKeyViolation:
			return apperrors.BadRequest(fmt.Sprintf("%s references a record that does not exist", resource), err)
		case pqCheckViolation:
			return apperrors.BadRequest(fmt.Sprintf("invalid %s: %s", resource, pqErr.Constraint), err)
		}
	}
	return err
}

// expectOne turns a zero-row update into a not-found error.
func expectOne(res sql.Result, resource string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound(resource, nil)
	}
	return nil
}
