package handler

import (
	"net/http"

	"elocation/internal/domain"
	"elocation/internal/middleware"
	"elocation/internal/service"
	"elocation/pkg/pagination"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Authenticator
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Authenticator) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/admin/audit-logs")
	group.Use(h.auth.RequirePermission(domain.PermAuditRead))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns audit entries, newest first
// @Summary      Get audit logs
// @Description  Deletions and moderation actions, written in the same transaction as the change
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        action     query     string  false  "Action, e.g. DELETE_USER"
// @Param        entity_id  query     string  false  "Entity ID"
// @Param        user_id    query     string  false  "Acting user ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=response.Page{items=[]service.AuditLogResponse}}
// @Router       /admin/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	q := service.AuditLogQuery{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		UserID:   c.Query("user_id"),
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), q, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
