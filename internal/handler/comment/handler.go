package comment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/comment"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *comment.Service
}

func NewHandler(service *comment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	admin := g.Admin.Group("/comments")
	{
		admin.GET("", h.List)
		admin.GET("/unreviewed", h.ListUnreviewed)
		admin.GET("/:id", h.Get)
		admin.PUT("/:id", h.Update)
		admin.PATCH("/:id", h.Update)
	}

	customer := g.Customer.Group("/comments")
	{
		customer.POST("", h.Create)
		customer.GET("", h.List)
		customer.GET("/:id", h.Get)
	}
}

// @Summary      Leave a comment
// @Tags         comments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body model.CreateCommentRequest true "Comment"
// @Success      201 {object} httputil.Response{data=model.Comment}
// @Failure      400 {object} httputil.Response
// @Router       /comments [post]
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	cm, err := h.service.Create(c.Request.Context(), handler.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, cm)
}

func (h *Handler) List(c *gin.Context) {
	h.list(c, false)
}

func (h *Handler) ListUnreviewed(c *gin.Context) {
	h.list(c, true)
}

func (h *Handler) list(c *gin.Context, unreviewed bool) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filter := model.CommentFilter{ListParams: params, UnreviewedOnly: unreviewed}
	comments, err := h.service.List(c.Request.Context(), handler.CurrentUser(c), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, comments, params.Page, params.Limit(), len(comments))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamID(c, "comment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	cm, err := h.service.Get(c.Request.Context(), handler.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, cm)
}

// Update marks a comment reviewed or edits its message.
func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParamID(c, "comment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	cm, err := h.service.Update(c.Request.Context(), handler.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, cm)
}
