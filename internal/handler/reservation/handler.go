package reservation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/reservation"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *reservation.Service
}

func NewHandler(service *reservation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	h.registerSchedules(g)
	h.registerPreReservations(g)

	admin := g.Admin.Group("/reservations")
	{
		admin.POST("", h.Create)
		admin.GET("", h.List)
		admin.GET("/unpaid", h.ListUnpaid)
		admin.GET("/:id", h.Get)
		admin.PUT("/:id", h.Update)
		admin.PATCH("/:id", h.Update)
	}

	customer := g.Customer.Group("/reservations")
	{
		customer.POST("", h.Create)
		customer.GET("", h.List)
		customer.GET("/:id", h.Get)
		customer.PATCH("/:id/cancel", h.Cancel)
	}

	operator := g.Operator.Group("/operator/reservations")
	{
		operator.GET("", h.List)
		operator.GET("/:id", h.Get)
		operator.PATCH("/:id/mark_complete", h.MarkComplete)
	}
}

// @Summary      Book a reservation
// @Description  Creates a PENDING reservation on a schedule. The slot must not already be confirmed for another reservation or fall inside a cancellation period.
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body model.CreateReservationRequest true "Reservation"
// @Success      201 {object} httputil.Response{data=model.Reservation}
// @Failure      400 {object} httputil.Response
// @Failure      401 {object} httputil.Response
// @Failure      409 {object} httputil.Response
// @Router       /reservations [post]
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	r, err := h.service.Create(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, r)
}

// @Summary      List reservations
// @Description  Admins see every reservation, operators those on their schedules, customers their own.
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        search    query string false "Username"
// @Param        date      query string false "Schedule date (YYYY-MM-DD)"
// @Param        status    query string false "PENDING, CONFIRMED, CANCELLED or COMPLETED"
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} httputil.Response{data=[]model.Reservation}
// @Router       /reservations [get]
func (h *Handler) List(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	reservations, err := h.service.List(c.Request.Context(), handler.CurrentUser(c), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, reservations, filter.Page, filter.Limit(), len(reservations))
}

func (h *Handler) ListUnpaid(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	reservations, err := h.service.ListUnpaid(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, reservations, filter.Page, filter.Limit(), len(reservations))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamID(c, "reservation")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	r, err := h.service.Get(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, r)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParamID(c, "reservation")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	r, err := h.service.Update(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, r)
}

// @Summary      Cancel your reservation
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Reservation ID"
// @Success      200 {object} httputil.Response{data=model.Reservation}
// @Failure      404 {object} httputil.Response
// @Failure      409 {object} httputil.Response
// @Router       /reservations/{id}/cancel [patch]
func (h *Handler) Cancel(c *gin.Context) {
	id, err := handler.ParamID(c, "reservation")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	r, err := h.service.Cancel(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, r)
}

// @Summary      Mark a reservation completed
// @Tags         operator
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Reservation ID"
// @Success      200 {object} httputil.Response{data=model.Reservation}
// @Failure      409 {object} httputil.Response
// @Router       /operator/reservations/{id}/mark_complete [patch]
func (h *Handler) MarkComplete(c *gin.Context) {
	id, err := handler.ParamID(c, "reservation")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	r, err := h.service.MarkComplete(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, r)
}

func bindFilter(c *gin.Context) (model.ReservationFilter, bool) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return model.ReservationFilter{}, false
	}
	filter := model.ReservationFilter{ListParams: params}

	if filter.ScheduleDate, err = handler.QueryDate(c, "date"); err != nil {
		httputil.RespondWithError(c, err)
		return filter, false
	}
	if raw := c.Query("status"); raw != "" {
		status := model.ReservationStatus(raw)
		if !status.Valid() {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid status", nil))
			return filter, false
		}
		filter.Status = &status
	}
	return filter, true
}
