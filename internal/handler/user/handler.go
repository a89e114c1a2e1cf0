package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	users := g.Admin.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	profile := g.Protected.Group("/users/profile")
	{
		profile.GET("/:id", h.GetProfile)
		profile.PATCH("/:id", h.UpdateProfile)
	}
}

// @Summary      Create a user
// @Tags         admin-users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body model.CreateUserRequest true "User"
// @Success      201 {object} httputil.Response{data=model.User}
// @Failure      400 {object} httputil.Response
// @Failure      409 {object} httputil.Response
// @Router       /admin/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.Create(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, u)
}

// @Summary      List users
// @Tags         admin-users
// @Security     BearerAuth
// @Produce      json
// @Param        search    query string false "Username or email"
// @Param        role      query string false "ADMIN, CUSTOMER or STAFF"
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} httputil.Response{data=[]model.User}
// @Router       /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filter := model.UserFilter{ListParams: params}
	if role := model.Role(c.Query("role")); role != "" {
		if !role.Valid() {
			httputil.RespondWithError(c, apperrors.BadRequest("role must be one of ADMIN, CUSTOMER, STAFF", nil))
			return
		}
		filter.Role = &role
	}

	users, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, users, params.Page, params.Limit(), len(users))
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := handler.ParamID(c, "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	u, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := handler.ParamID(c, "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.Update(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := handler.ParamID(c, "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), handler.CurrentUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary      Retrieve your own account
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Your user ID"
// @Success      200 {object} httputil.Response{data=model.User}
// @Failure      403 {object} httputil.Response
// @Router       /users/profile/{id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	id, err := handler.ParamID(c, "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	u, err := h.service.GetSelf(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, u)
}

// @Summary      Update your own account
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path string                     true "Your user ID"
// @Param        body body model.UpdateProfileRequest true "Fields to change"
// @Success      200 {object} httputil.Response{data=model.User}
// @Failure      403 {object} httputil.Response
// @Router       /users/profile/{id} [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, err := handler.ParamID(c, "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.UpdateSelf(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, u)
}
