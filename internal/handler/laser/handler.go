package laser

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/laser"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *laser.Service
}

func NewHandler(service *laser.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	areas := g.Admin.Group("/laser-areas")
	{
		areas.POST("", h.CreateArea)
		areas.GET("", h.ListAreas)
		areas.GET("/:name", h.GetArea)
		areas.PUT("/:name", h.UpdateArea)
		areas.PATCH("/:name", h.UpdateArea)
		areas.DELETE("/:name", h.DeleteArea)
	}

	schedules := g.Admin.Group("/laser-schedules")
	{
		schedules.POST("", h.CreateSchedule)
		schedules.GET("", h.ListSchedules)
		schedules.GET("/:id", h.GetSchedule)
		schedules.PUT("/:id", h.UpdateSchedule)
		schedules.PATCH("/:id", h.UpdateSchedule)
		schedules.DELETE("/:id", h.DeleteSchedule)
	}

	g.Protected.GET("/laser-areas", h.ListActiveAreas)
	g.Protected.GET("/laser-areas/:name", h.GetArea)
	g.Protected.GET("/laser-schedules", h.ListSchedules)
	g.Protected.GET("/laser-schedules/active", h.ListActiveSchedules)
	g.Protected.GET("/laser-schedules/:id", h.GetSchedule)
}

func (h *Handler) CreateArea(c *gin.Context) {
	var req model.CreateLaserAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	area, err := h.service.CreateArea(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, area)
}

func (h *Handler) ListAreas(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	areas, err := h.service.ListAreas(c.Request.Context(), model.LaserAreaFilter{ListParams: params})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, areas, params.Page, params.Limit(), len(areas))
}

// @Summary      List laser treatment areas
// @Description  Active areas with their current price.
// @Tags         laser
// @Security     BearerAuth
// @Produce      json
// @Param        search    query string false "Area name"
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} httputil.Response{data=[]model.LaserArea}
// @Failure      401 {object} httputil.Response
// @Router       /laser-areas [get]
func (h *Handler) ListActiveAreas(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	areas, err := h.service.ListActiveAreas(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, areas, params.Page, params.Limit(), len(areas))
}

func (h *Handler) GetArea(c *gin.Context) {
	area, err := h.service.GetArea(c.Request.Context(), handler.CurrentUser(c), c.Param("name"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, area)
}

func (h *Handler) UpdateArea(c *gin.Context) {
	var req model.UpdateLaserAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	area, err := h.service.UpdateArea(c.Request.Context(), handler.CurrentUser(c), c.Param("name"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, area)
}

func (h *Handler) DeleteArea(c *gin.Context) {
	if err := h.service.DeleteArea(c.Request.Context(), handler.CurrentUser(c), c.Param("name")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateSchedule(c *gin.Context) {
	var req model.CreateLaserScheduleRequest
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

	filter := model.LaserScheduleFilter{ListParams: params}
	if area := c.Query("laser_area"); area != "" {
		filter.LaserArea = &area
	}

	schedules, err := h.service.ListSchedules(c.Request.Context(), handler.CurrentUser(c), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, schedules, params.Page, params.Limit(), len(schedules))
}

// ListActiveSchedules returns schedules whose window has not ended yet.
func (h *Handler) ListActiveSchedules(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	schedules, err := h.service.ListActiveSchedules(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, schedules, params.Page, params.Limit(), len(schedules))
}

func (h *Handler) GetSchedule(c *gin.Context) {
	id, err := handler.ParamID(c, "laser schedule")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	s, err := h.service.GetSchedule(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, s)
}

func (h *Handler) UpdateSchedule(c *gin.Context) {
	id, err := handler.ParamID(c, "laser schedule")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateLaserScheduleRequest
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

func (h *Handler) DeleteSchedule(c *gin.Context) {
	id, err := handler.ParamID(c, "laser schedule")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteSchedule(c.Request.Context(), handler.CurrentUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
