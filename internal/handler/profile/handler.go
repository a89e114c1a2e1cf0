package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/profile"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *profile.Service
}

func NewHandler(service *profile.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	for _, rg := range []*gin.RouterGroup{g.Admin, g.Customer} {
		profiles := rg.Group("/customer-profiles")
		profiles.POST("", h.Create)
		profiles.GET("", h.List)
		profiles.GET("/:id", h.Get)
		profiles.PATCH("/:id", h.Update)
	}
	g.Admin.PUT("/customer-profiles/:id", h.Update)
}

// @Summary      Create a customer profile
// @Description  Customers create their own profile; admins pass user_id. One profile per user.
// @Tags         customer-profiles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body model.CreateProfileRequest true "Profile"
// @Success      201 {object} httputil.Response{data=model.CustomerProfile}
// @Failure      409 {object} httputil.Response
// @Router       /customer-profiles [post]
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateProfileRequest
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

func (h *Handler) List(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	profiles, err := h.service.List(c.Request.Context(), handler.CurrentUser(c), model.ProfileFilter{ListParams: params})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, profiles, params.Page, params.Limit(), len(profiles))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamID(c, "profile")
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

func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParamID(c, "profile")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateProfileDetailsRequest
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
