package audit

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g handler.RouteGroups) {
	logs := g.Admin.Group("/audit-logs")
	{
		logs.GET("", h.ListLogs)
		logs.GET("/entity/:type/:id", h.GetEntityLogs)
	}
}

// @Summary      List audit log entries
// @Tags         admin-audit
// @Security     BearerAuth
// @Produce      json
// @Param        user_id     query string false "Actor"
// @Param        entity_type query string false "Entity type, e.g. reservation"
// @Param        page        query int    false "Page"
// @Param        page_size   query int    false "Page size"
// @Success      200 {object} httputil.Response{data=[]model.AuditLog}
// @Router       /admin/audit-logs [get]
func (h *Handler) ListLogs(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	filter := repository.AuditFilter{
		ListParams: params,
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	}
	if filter.UserID, err = handler.QueryUUID(c, "user_id"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, logs, params.Page, params.Limit(), len(logs))
}

// GetEntityLogs returns the history of one record, newest first.
func (h *Handler) GetEntityLogs(c *gin.Context) {
	params, err := handler.ListParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	logs, err := h.service.List(c.Request.Context(), repository.AuditFilter{
		ListParams: params,
		EntityType: c.Param("type"),
		EntityID:   c.Param("id"),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithList(c, logs, params.Page, params.Limit(), len(logs))
}
