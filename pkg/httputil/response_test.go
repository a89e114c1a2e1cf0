package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"conflict", apperrors.Conflict("time slot already booked", nil), http.StatusConflict, "time slot already booked"},
		{"wrapped not found", errors.Join(errors.New("ctx"), apperrors.NotFound("payment", nil)), http.StatusNotFound, "payment not found"},
		{"plain error hidden", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error"},
		{"internal hidden", apperrors.Internal(errors.New("boom")), http.StatusInternalServerError, "internal server error"},
		{"deadline", fmt.Errorf("failed to list payments: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "request timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondWithError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestRespondWithBindError(t *testing.T) {
	type request struct {
		Email string `json:"email" binding:"required,email"`
		Count int    `json:"count" binding:"gt=0"`
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","count":0}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req request
	err := c.ShouldBindJSON(&req)
	require.Error(t, err)

	RespondWithBindError(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "validation failed", resp.Message)
	assert.Len(t, resp.Errors, 2)
}

func TestRespondWithList(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithList(c, []string{"a", "b"}, 0, 50, 2)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 2, resp.Meta.Count)
}
