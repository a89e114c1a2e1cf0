package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// ContextClaims is the gin context key the auth middleware stores token
// claims under.
const ContextClaims = "claims"

// RouteGroups are the route families every module registers into. Role
// checks are attached by the router, so handlers only pick a group.
type RouteGroups struct {
	Public    *gin.RouterGroup
	Protected *gin.RouterGroup
	Admin     *gin.RouterGroup
	Customer  *gin.RouterGroup
	Operator  *gin.RouterGroup
}

// CurrentUser returns the authenticated caller. It is only valid behind the
// auth middleware; elsewhere it returns the zero Actor.
func CurrentUser(c *gin.Context) model.Actor {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return model.Actor{}
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return model.Actor{}
	}
	return claims.Actor()
}

// ParamID parses the :id path parameter.
func ParamID(c *gin.Context, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest(fmt.Sprintf("invalid %s ID", resource), err)
	}
	return id, nil
}

// ListParams binds ?search=, ?page= and ?page_size=.
func ListParams(c *gin.Context) (model.ListParams, error) {
	var p model.ListParams
	if err := c.ShouldBindQuery(&p); err != nil {
		return p, apperrors.BadRequest("invalid pagination parameters", err)
	}
	if p.Page < 0 || p.PageSize < 0 {
		return p, apperrors.BadRequest("page and page_size must be positive", nil)
	}
	return p, nil
}

func QueryUUID(c *gin.Context, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid %s", key), err)
	}
	return &id, nil
}

func QueryDate(c *gin.Context, key string) (*model.Date, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	return &d, nil
}

// QueryTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func QueryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid %s, expected RFC 3339 or YYYY-MM-DD", key), err)
	}
	return &d.Time, nil
}

func QueryBool(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.BadRequest(fmt.Sprintf("invalid %s", key), err)
	}
	return b, nil
}
