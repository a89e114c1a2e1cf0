package reservation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

func (h *Handler) registerPreReservations(g handler.RouteGroups) {
	admin := g.Admin.Group("/pre-reservations")
	{
		admin.POST("", h.CreatePreReservation)
		admin.GET("", h.ListPreReservations)
		admin.GET("/:id", h.GetPreReservation)
		admin.PUT("/:id", h.UpdatePreReservation)
		admin.PATCH("/:id", h.UpdatePreReservation)
	}

	customer := g.Customer.Group("/pre-reservations")
	{
		customer.GET("", h.ListPreReservations)
		customer.GET("/:id", h.GetPreReservation)
	}
}

func (h *Handler) CreatePreReservation(c *gin.Context) {
	var req model.CreatePreReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.CreatePreReservation(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) ListPreReservations(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	items, err := h.service.ListPreReservations(c.Request.Context(), handler.CurrentUser(c), model.PreReservationFilter{ListParams: params})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, items, params.Page, params.Limit(), len(items))
}

func (h *Handler) GetPreReservation(c *gin.Context) {
	id, err := handler.ParamID(c, "pre-reservation")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.GetPreReservation(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdatePreReservation(c *gin.Context) {
	id, err := handler.ParamID(c, "pre-reservation")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdatePreReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.UpdatePreReservation(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}
