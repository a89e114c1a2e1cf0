package payment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/mocks"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/payment"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/event"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	engine   *gin.Engine
	payments *mocks.PaymentRepository
}

// newTestEnv mounts the handler with every group pointing at one router
// group that injects claims for role.
func newTestEnv(role model.Role, userID uuid.UUID) *testEnv {
	payments := new(mocks.PaymentRepository)
	svc := payment.NewService(payments, new(mocks.DiscountCodeRepository), new(mocks.ReservationRepository),
		nil, nil, audit.Nop(), event.Nop())

	r := gin.New()
	withClaims := func(c *gin.Context) {
		c.Set(handler.ContextClaims, &auth.Claims{UserID: userID, Role: role})
		c.Next()
	}
	api := r.Group("/api/v1", withClaims)
	NewHandler(svc).RegisterRoutes(handler.RouteGroups{
		Public:    api,
		Protected: api,
		Admin:     r.Group("/api/v1/admin", withClaims),
		Customer:  api,
		Operator:  api,
	})
	return &testEnv{engine: r, payments: payments}
}

func (e *testEnv) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestExportReturnsWorkbook(t *testing.T) {
	env := newTestEnv(model.RoleAdmin, uuid.New())
	env.payments.On("List", mock.Anything, mock.MatchedBy(func(f model.PaymentFilter) bool {
		return f.Status != nil && *f.Status == model.PaymentCompleted && f.From != nil
	})).Return([]*model.Payment{{
		Base:        model.Base{ID: uuid.New()},
		Amount:      50,
		Status:      model.PaymentCompleted,
		PaymentType: model.PaymentTypeBankTransfer,
	}}, nil)

	w := env.do(http.MethodGet, "/api/v1/admin/payments/export?status=COMPLETED&from=2026-01-01")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="payments-`)

	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	env.payments.AssertExpectations(t)
}

func TestListRejectsBadFilters(t *testing.T) {
	env := newTestEnv(model.RoleAdmin, uuid.New())

	tests := []struct {
		name  string
		query string
		msg   string
	}{
		{"unknown status", "?status=PAID", "invalid status"},
		{"bad date", "?from=yesterday", "invalid from, expected RFC 3339 or YYYY-MM-DD"},
		{"negative page", "?page=-1", "page and page_size must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/v1/admin/payments"+tt.query)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.msg, decode(t, w).Message)
		})
	}
	env.payments.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestCustomerListIsScopedToCaller(t *testing.T) {
	userID := uuid.New()
	env := newTestEnv(model.RoleCustomer, userID)
	env.payments.On("List", mock.Anything, mock.MatchedBy(func(f model.PaymentFilter) bool {
		return f.UserID != nil && *f.UserID == userID
	})).Return([]*model.Payment{}, nil)

	w := env.do(http.MethodGet, "/api/v1/payments?page=2&page_size=5")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 5, resp.Meta.PageSize)
	env.payments.AssertExpectations(t)
}

func TestCustomerCannotSeeOthersPayment(t *testing.T) {
	env := newTestEnv(model.RoleCustomer, uuid.New())
	id := uuid.New()
	env.payments.On("Get", mock.Anything, id).Return(&model.Payment{
		Base:   model.Base{ID: id},
		UserID: uuid.New(),
	}, nil)

	w := env.do(http.MethodGet, "/api/v1/payments/"+id.String())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "payment not found", decode(t, w).Message)
}

func TestGetRejectsMalformedID(t *testing.T) {
	env := newTestEnv(model.RoleCustomer, uuid.New())

	w := env.do(http.MethodGet, "/api/v1/payments/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid payment ID", decode(t, w).Message)
}
