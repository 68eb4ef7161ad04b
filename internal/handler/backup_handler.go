package handler

import (
	"io"
	"net/http"

	"shopbooks/internal/middleware"
	"shopbooks/internal/model"
	"shopbooks/internal/service"
	"shopbooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type BackupHandler struct {
	backupService service.BackupService
}

func NewBackupHandler(backupService service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

func (h *BackupHandler) RegisterRoutes(router *gin.RouterGroup) {
	backup := router.Group("/api/backup")
	{
		backup.GET("/export", middleware.RequireRole(model.RoleAdmin), h.Export)
		backup.POST("/import", middleware.RequireRole(model.RoleAdmin), h.Import)
	}
}

// Export produces a full data snapshot
// @Summary      Export backup
// @Description  Dumps every business record (users and sessions excluded) as a single JSON payload
// @Tags         backup
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.BackupPayload}
// @Failure      500  {object}  response.Response
// @Router       /api/backup/export [get]
func (h *BackupHandler) Export(c *gin.Context) {
	payload, err := h.backupService.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payload))
}

// Import restores a previously exported snapshot
// @Summary      Import backup
// @Description  Replaces all business data with the uploaded snapshot. Existing records are wiped first.
// @Tags         backup
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BackupPayload  true  "Backup payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/backup/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	if err := h.backupService.Import(c.Request.Context(), currentUserID(c), raw); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Backup restored"}))
}
