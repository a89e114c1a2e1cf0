package reservation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

func (h *Handler) registerSchedules(g handler.RouteGroups) {
	admin := g.Admin.Group("/schedules")
	{
		admin.POST("", h.CreateSchedule)
		admin.GET("", h.ListSchedules)
		admin.GET("/:id", h.GetSchedule)
		admin.PUT("/:id", h.UpdateSchedule)
		admin.PATCH("/:id", h.UpdateSchedule)
	}

	schedules := g.Protected.Group("/schedules")
	{
		schedules.GET("", h.ListSchedules)
		schedules.GET("/available", h.Available)
		schedules.GET("/:id", h.GetSchedule)
	}
}

func (h *Handler) CreateSchedule(c *gin.Context) {
	var req model.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	s, err := h.service.CreateSchedule(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, s)
}

func (h *Handler) ListSchedules(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	filter := model.ScheduleFilter{ListParams: params}
	if filter.Date, err = handler.QueryDate(c, "date"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if filter.OperatorID, err = handler.QueryUUID(c, "operator_id"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	schedules, err := h.service.ListSchedules(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, schedules, params.Page, params.Limit(), len(schedules))
}

// @Summary      Available schedules on a day
// @Description  Schedules with no confirmed reservation that are outside every active cancellation period.
// @Tags         schedules
// @Security     BearerAuth
// @Produce      json
// @Param        date query string true "Day (YYYY-MM-DD)"
// @Success      200 {object} httputil.Response{data=[]model.ReservationSchedule}
// @Failure      400 {object} httputil.Response
// @Router       /schedules/available [get]
func (h *Handler) Available(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	day, err := handler.QueryDate(c, "date")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	schedules, err := h.service.Available(c.Request.Context(), day, params)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, schedules, params.Page, params.Limit(), len(schedules))
}

func (h *Handler) GetSchedule(c *gin.Context) {
	id, err := handler.ParamID(c, "schedule")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	s, err := h.service.GetSchedule(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, s)
}

func (h *Handler) UpdateSchedule(c *gin.Context) {
	id, err := handler.ParamID(c, "schedule")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	s, err := h.service.UpdateSchedule(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, s)
}
