package handler

import (
	"net/http"

	"shopbooks/internal/middleware"
	"shopbooks/internal/model"
	"shopbooks/internal/service"
	"shopbooks/pkg/pagination"
	"shopbooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit-logs")
	{
		audit.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetAuditLogs)
	}
}

// GetAuditLogs returns the audit trail, newest first
// @Summary      List audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action  query     string  false  "Filter by action, e.g. SAVE_SALE"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Limit"
// @Success      200     {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      500     {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), c.Query("action"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, pagination.NewMeta(p, total)))
}
