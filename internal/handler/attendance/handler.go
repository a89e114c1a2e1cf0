package attendance

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/attendance"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *attendance.Service
}

func NewHandler(service *attendance.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	admin := g.Admin.Group("/staff-attendance")
	{
		admin.POST("", h.Create)
		admin.GET("", h.List)
		admin.GET("/active", h.ListActive)
		admin.GET("/:id", h.Get)
		admin.PUT("/:id", h.Update)
		admin.PATCH("/:id", h.Update)
	}

	operator := g.Operator.Group("/operator/staff-attendance")
	{
		operator.GET("", h.List)
		operator.GET("/:id", h.Get)
		operator.POST("/check-in", h.CheckIn)
		operator.PATCH("/:id/check-out", h.CheckOut)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	a, err := h.service.Create(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, a)
}

func (h *Handler) List(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	rows, err := h.service.List(c.Request.Context(), handler.CurrentUser(c), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, rows, filter.Page, filter.Limit(), len(rows))
}

// ListActive returns staff who have checked in and not yet left.
func (h *Handler) ListActive(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	rows, err := h.service.ListActive(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, rows, filter.Page, filter.Limit(), len(rows))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamID(c, "attendance")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	a, err := h.service.Get(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, a)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParamID(c, "attendance")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	a, err := h.service.Update(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, a)
}

// @Summary      Check in
// @Description  Records an attendance entry for the calling staff member at the current time.
// @Tags         operator
// @Security     BearerAuth
// @Produce      json
// @Success      201 {object} httputil.Response{data=model.StaffAttendance}
// @Router       /operator/staff-attendance/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	a, err := h.service.CheckIn(c.Request.Context(), handler.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, a)
}

// @Summary      Check out
// @Tags         operator
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Attendance ID"
// @Success      200 {object} httputil.Response{data=model.StaffAttendance}
// @Failure      409 {object} httputil.Response
// @Router       /operator/staff-attendance/{id}/check-out [patch]
func (h *Handler) CheckOut(c *gin.Context) {
	id, err := handler.ParamID(c, "attendance")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	a, err := h.service.CheckOut(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, a)
}

func bindFilter(c *gin.Context) (model.AttendanceFilter, bool) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return model.AttendanceFilter{}, false
	}
	staffID, err := handler.QueryUUID(c, "staff_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return model.AttendanceFilter{}, false
	}
	return model.AttendanceFilter{ListParams: params, StaffID: staffID}, true
}
