package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

func (h *Handler) registerDiscounts(g handler.RouteGroups) {
	admin := g.Admin.Group("/discount-codes")
	{
		admin.POST("", h.CreateDiscount)
		admin.GET("", h.ListDiscounts)
		admin.GET("/:code", h.GetDiscount)
		admin.PUT("/:code", h.UpdateDiscount)
		admin.PATCH("/:code", h.UpdateDiscount)
	}

	codes := g.Protected.Group("/discount-codes")
	{
		codes.GET("", h.ListDiscounts)
		codes.GET("/valid", h.ListValidDiscounts)
		codes.GET("/:code", h.GetDiscount)
	}
}

func (h *Handler) CreateDiscount(c *gin.Context) {
	var req model.CreateDiscountCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	d, err := h.service.CreateDiscount(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, d)
}

func (h *Handler) ListDiscounts(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	codes, err := h.service.ListDiscounts(c.Request.Context(), model.DiscountFilter{ListParams: params})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, codes, params.Page, params.Limit(), len(codes))
}

// ListValidDiscounts returns codes that can still be redeemed.
func (h *Handler) ListValidDiscounts(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	codes, err := h.service.ListValidDiscounts(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, codes, params.Page, params.Limit(), len(codes))
}

func (h *Handler) GetDiscount(c *gin.Context) {
	d, err := h.service.GetDiscount(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, d)
}

func (h *Handler) UpdateDiscount(c *gin.Context) {
	var req model.UpdateDiscountCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	d, err := h.service.UpdateDiscount(c.Request.Context(), handler.CurrentUser(c), c.Param("code"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, d)
}
