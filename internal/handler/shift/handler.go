package shift

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/shift"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *shift.Service
}

func NewHandler(service *shift.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	admin := g.Admin.Group("/shifts")
	{
		admin.POST("", h.CreateShift)
		admin.GET("", h.ListShifts)
		admin.GET("/:id", h.GetShift)
		admin.PUT("/:id", h.UpdateShift)
		admin.PATCH("/:id", h.UpdateShift)
		admin.DELETE("/:id", h.DeleteShift)
	}

	operator := g.Operator.Group("/shifts")
	{
		operator.GET("", h.ListShifts)
		operator.GET("/active", h.ListActiveShifts)
		operator.GET("/:id", h.GetShift)
	}

	periods := g.Admin.Group("/cancellation-periods")
	{
		periods.POST("", h.CreatePeriod)
		periods.GET("", h.ListPeriods)
		periods.GET("/:id", h.GetPeriod)
		periods.PUT("/:id", h.UpdatePeriod)
		periods.PATCH("/:id", h.UpdatePeriod)
		periods.DELETE("/:id", h.DeletePeriod)
	}

	g.Protected.GET("/cancellation-periods", h.ListPeriods)
	g.Protected.GET("/cancellation-periods/:id", h.GetPeriod)
}

func (h *Handler) CreateShift(c *gin.Context) {
	var req model.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	s, err := h.service.CreateShift(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, s)
}

func (h *Handler) ListShifts(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	filter := model.ShiftFilter{ListParams: params}
	if filter.From, err = handler.QueryDate(c, "from"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	shifts, err := h.service.ListShifts(c.Request.Context(), handler.CurrentUser(c), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, shifts, params.Page, params.Limit(), len(shifts))
}

// @Summary      Upcoming shifts
// @Description  The caller's shifts from today onwards.
// @Tags         operator
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} httputil.Response{data=[]model.OperatorShift}
// @Router       /shifts/active [get]
func (h *Handler) ListActiveShifts(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	shifts, err := h.service.ListActiveShifts(c.Request.Context(), handler.CurrentUser(c), params)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, shifts, params.Page, params.Limit(), len(shifts))
}

func (h *Handler) GetShift(c *gin.Context) {
	id, err := handler.ParamID(c, "shift")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	s, err := h.service.GetShift(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, s)
}

func (h *Handler) UpdateShift(c *gin.Context) {
	id, err := handler.ParamID(c, "shift")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	s, err := h.service.UpdateShift(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, s)
}

func (h *Handler) DeleteShift(c *gin.Context) {
	id, err := handler.ParamID(c, "shift")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteShift(c.Request.Context(), handler.CurrentUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary      Create a cancellation period
// @Description  Blocks bookings whose slot starts inside [start_time, end_time).
// @Tags         admin-cancellation-periods
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body model.CancellationPeriodRequest true "Period"
// @Success      201 {object} httputil.Response{data=model.CancellationPeriod}
// @Failure      400 {object} httputil.Response
// @Router       /admin/cancellation-periods [post]
func (h *Handler) CreatePeriod(c *gin.Context) {
	var req model.CancellationPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.CreatePeriod(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) ListPeriods(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	periods, err := h.service.ListPeriods(c.Request.Context(), handler.CurrentUser(c), model.CancellationPeriodFilter{ListParams: params})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, periods, params.Page, params.Limit(), len(periods))
}

func (h *Handler) GetPeriod(c *gin.Context) {
	id, err := handler.ParamID(c, "cancellation period")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.GetPeriod(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdatePeriod(c *gin.Context) {
	id, err := handler.ParamID(c, "cancellation period")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CancellationPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.UpdatePeriod(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) DeletePeriod(c *gin.Context) {
	id, err := handler.ParamID(c, "cancellation period")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeletePeriod(c.Request.Context(), handler.CurrentUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
