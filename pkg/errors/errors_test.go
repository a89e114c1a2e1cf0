package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("reservation", nil), http.StatusNotFound},
		{"bad request", BadRequest("invalid", nil), http.StatusBadRequest},
		{"unauthorized", Unauthorized("", nil), http.StatusUnauthorized},
		{"forbidden", Forbidden(""), http.StatusForbidden},
		{"conflict", Conflict("slot taken", nil), http.StatusConflict},
		{"internal", Internal(sql.ErrConnDone), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("failed to create reservation: %w", Conflict("time slot already booked", nil))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrConflict, appErr.Code)
	assert.True(t, Is(wrapped, ErrConflict))
	assert.False(t, Is(wrapped, ErrNotFound))
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("payment", sql.ErrNoRows)
	assert.Equal(t, "payment not found: sql: no rows in result set", err.Error())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, "unauthorized", Unauthorized("", nil).Error())
}
