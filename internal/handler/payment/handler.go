package payment

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/payment"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *payment.Service
}

func NewHandler(service *payment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	admin := g.Admin.Group("/payments")
	{
		admin.POST("", h.AdminCreate)
		admin.GET("", h.List)
		admin.GET("/pending", h.ListPending)
		admin.GET("/export", h.Export)
		admin.GET("/:id", h.Get)
		admin.PUT("/:id", h.Update)
		admin.PATCH("/:id", h.Update)
		admin.POST("/:id/refund", h.Refund)
	}

	customer := g.Customer.Group("/payments")
	{
		customer.POST("", h.Create)
		customer.GET("", h.List)
		customer.GET("/:id", h.Get)
	}

	h.registerDiscounts(g)
}

// @Summary      Pay for a reservation
// @Description  PayPal orders are captured immediately. A gateway failure is stored as a FAILED payment and still returns 201 with the failed record.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body model.CreatePaymentRequest true "Payment"
// @Success      201 {object} httputil.Response{data=model.Payment}
// @Failure      400 {object} httputil.Response
// @Failure      409 {object} httputil.Response
// @Router       /payments [post]
func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) AdminCreate(c *gin.Context) {
	var req model.AdminCreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.AdminCreate(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) List(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	payments, err := h.service.List(c.Request.Context(), handler.CurrentUser(c), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, payments, filter.Page, filter.Limit(), len(payments))
}

func (h *Handler) ListPending(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	payments, err := h.service.ListPending(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, payments, filter.Page, filter.Limit(), len(payments))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamID(c, "payment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.Get(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

// @Summary      Update a payment
// @Description  Status only moves forward: PENDING to COMPLETED, FAILED or CANCELLED, and COMPLETED to REFUNDED.
// @Tags         admin-payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path string                     true "Payment ID"
// @Param        body body model.UpdatePaymentRequest true "Fields to change"
// @Success      200 {object} httputil.Response{data=model.Payment}
// @Failure      409 {object} httputil.Response
// @Router       /admin/payments/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParamID(c, "payment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.Update(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

// @Summary      Refund a completed payment
// @Tags         admin-payments
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} httputil.Response{data=model.Payment}
// @Failure      409 {object} httputil.Response
// @Router       /admin/payments/{id}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	id, err := handler.ParamID(c, "payment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.Refund(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

// @Summary      Export payments as XLSX
// @Tags         admin-payments
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from   query string false "Created on or after (RFC 3339 or YYYY-MM-DD)"
// @Param        to     query string false "Created before (RFC 3339 or YYYY-MM-DD)"
// @Param        status query string false "Payment status"
// @Success      200 {file} file
// @Router       /admin/payments/export [get]
func (h *Handler) Export(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	data, err := h.service.Export(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	name := fmt.Sprintf("payments-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func bindFilter(c *gin.Context) (model.PaymentFilter, bool) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return model.PaymentFilter{}, false
	}
	filter := model.PaymentFilter{ListParams: params}

	if filter.From, err = handler.QueryTime(c, "from"); err != nil {
		httputil.RespondWithError(c, err)
		return filter, false
	}
	if filter.To, err = handler.QueryTime(c, "to"); err != nil {
		httputil.RespondWithError(c, err)
		return filter, false
	}
	if raw := c.Query("status"); raw != "" {
		status := model.PaymentStatus(raw)
		if !status.Valid() {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid status", nil))
			return filter, false
		}
		filter.Status = &status
	}
	return filter, true
}
