package handler

import (
	"net/http"
	"strconv"
	"strings"

	"assistix/internal/repository"
	"assistix/internal/service"
	"assistix/pkg/pagination"
	"assistix/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         gin.HandlerFunc
}

func NewAuditHandler(auditService service.AuditService, auth gin.HandlerFunc) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.auth)
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns the lifecycle and allow-list trail, newest first
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        actor_id    query     int     false  "Only entries by this account"
// @Param        request_id  query     string  false  "Only entries about this request, admin id or \"catalog\""
// @Param        action      query     string  false  "Only this action, e.g. CHANGE_STATUS"
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.AuditLogResponse,meta=pagination.Meta}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.AuditFilter{
		EntityID: c.Query("request_id"),
		Action:   strings.ToUpper(c.Query("action")),
	}
	if raw := c.Query("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid actor_id"))
			return
		}
		filter.ActorID = id
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, logs, p.Meta(total)))
}
