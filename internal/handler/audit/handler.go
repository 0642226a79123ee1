package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/handler"
	"github.com/jwalitptl/scribe-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit-logs", h.ListAuditLogs)
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	filters := make(map[string]interface{})

	if raw := c.Query("actor_id"); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid actor ID"))
			return
		}
		filters["actor_id"] = actorID
	}
	if raw := c.Query("resource_id"); raw != "" {
		resourceID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid resource ID"))
			return
		}
		filters["resource_id"] = resourceID
	}
	if resourceType := c.Query("resource_type"); resourceType != "" {
		filters["resource_type"] = resourceType
	}
	if action := c.Query("action"); action != "" {
		filters["action"] = action
	}

	logs, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}
