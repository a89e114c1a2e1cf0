package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	attendancehandler "github.com/jwalitptl/clinic-api/internal/handler/attendance"
	audithandler "github.com/jwalitptl/clinic-api/internal/handler/audit"
	authhandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	commenthandler "github.com/jwalitptl/clinic-api/internal/handler/comment"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	laserhandler "github.com/jwalitptl/clinic-api/internal/handler/laser"
	paymenthandler "github.com/jwalitptl/clinic-api/internal/handler/payment"
	profilehandler "github.com/jwalitptl/clinic-api/internal/handler/profile"
	"github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	reservationhandler "github.com/jwalitptl/clinic-api/internal/handler/reservation"
	shifthandler "github.com/jwalitptl/clinic-api/internal/handler/shift"
	userhandler "github.com/jwalitptl/clinic-api/internal/handler/user"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/mocks"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/reservation"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/event"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newJWT() auth.JWTService {
	return auth.NewJWTService(auth.Config{Secret: "access-secret", RefreshSecret: "refresh-secret"})
}

func build(t *testing.T, jwt auth.JWTService, db health.Pinger, handlers ...Handler) *gin.Engine {
	t.Helper()
	reg := prom.NewRegistry()
	r, err := NewRouter(
		Config{CORS: middleware.DefaultCORSConfig()},
		middleware.NewAuthMiddleware(jwt),
		authhandler.NewHandler(nil),
		health.NewHandler(db),
		prometheus.New("clinic_test", reg, reg),
		handlers...,
	)
	require.NoError(t, err)
	r.Setup()
	return r.Engine()
}

func TestAllModulesRegisterWithoutConflicts(t *testing.T) {
	assert.NotPanics(t, func() {
		build(t, newJWT(), fakePinger{},
			userhandler.NewHandler(nil),
			profilehandler.NewHandler(nil),
			commenthandler.NewHandler(nil),
			attendancehandler.NewHandler(nil),
			laserhandler.NewHandler(nil),
			shifthandler.NewHandler(nil),
			reservationhandler.NewHandler(nil),
			paymenthandler.NewHandler(nil),
			audithandler.NewHandler(nil),
		)
	})
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	engine := build(t, newJWT(), fakePinger{}, reservationhandler.NewHandler(nil))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestCustomerCannotUseAdminRoutes(t *testing.T) {
	jwt := newJWT()
	engine := build(t, jwt, fakePinger{}, reservationhandler.NewHandler(nil))

	token, err := jwt.GenerateAccessToken(&model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleCustomer})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reservations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCustomerCreatesReservation(t *testing.T) {
	jwt := newJWT()
	customer := &model.User{Base: model.Base{ID: uuid.New()}, Username: "sara", Role: model.RoleCustomer}
	token, err := jwt.GenerateAccessToken(customer)
	require.NoError(t, err)

	sched := &model.ReservationSchedule{
		Base:       model.Base{ID: uuid.New()},
		OperatorID: uuid.New(),
		Date:       model.NewDate(time.Now().UTC().AddDate(0, 0, 3)),
		Period:     model.PeriodMorning,
		TimeSlot:   model.Slot10To12,
		Duration:   30,
	}

	schedules := new(mocks.ScheduleRepository)
	reservations := new(mocks.ReservationRepository)
	cancellations := new(mocks.CancellationPeriodRepository)
	areas := new(mocks.LaserAreaRepository)

	schedules.On("Get", mock.Anything, sched.ID).Return(sched, nil)
	areas.On("Get", mock.Anything, "Face").Return(&model.LaserArea{Name: "Face", IsActive: true}, nil)
	cancellations.On("Covers", mock.Anything, mock.Anything).Return(false, nil)
	reservations.On("HasConfirmed", mock.Anything, sched.ID, (*uuid.UUID)(nil)).Return(false, nil)
	reservations.On("Create", mock.Anything, mock.AnythingOfType("*model.Reservation")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Reservation).ID = uuid.New()
		}).
		Return(nil)

	svc := reservation.NewService(reservation.Repositories{
		Schedules:       schedules,
		Reservations:    reservations,
		PreReservations: new(mocks.PreReservationRepository),
		Cancellations:   cancellations,
		LaserAreas:      areas,
		LaserSchedules:  new(mocks.LaserScheduleRepository),
		Users:           new(mocks.UserRepository),
	}, audit.Nop(), event.Nop(), time.UTC)

	engine := build(t, jwt, fakePinger{}, reservationhandler.NewHandler(svc))

	body, err := json.Marshal(map[string]interface{}{
		"schedule_id":    sched.ID,
		"laser_area":     "Face",
		"session_number": 1,
		"total_price":    100,
		"final_amount":   80,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Status string            `json:"status"`
		Data   model.Reservation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, customer.ID, resp.Data.UserID)
	assert.Equal(t, sched.ID, resp.Data.ScheduleID)
	assert.Equal(t, model.ReservationPending, resp.Data.Status)
	assert.Equal(t, 80.0, resp.Data.FinalAmount)
	assert.False(t, resp.Data.IsPaid)
	reservations.AssertExpectations(t)
}

func TestHealthEndpoints(t *testing.T) {
	engine := build(t, newJWT(), fakePinger{err: context.DeadlineExceeded})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinic_test_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	engine := build(t, newJWT(), fakePinger{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}
