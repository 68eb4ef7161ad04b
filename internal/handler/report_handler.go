package handler

import (
	"net/http"
	"time"

	"shopbooks/internal/middleware"
	"shopbooks/internal/model"
	"shopbooks/internal/service"
	"shopbooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.GET("/summary", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetSummary)
	}
}

// GetSummary returns aggregated business figures for a period
// @Summary      Get summary report
// @Description  Aggregates sales, purchases, returns, expenses, profit, top items, and inventory valuation for a date range
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "Range start (YYYY-MM-DD, default first of current month)"
// @Param        to    query     string  false  "Range end (YYYY-MM-DD, default today)"
// @Success      200   {object}  response.Response{data=service.SummaryReport}
// @Failure      500   {object}  response.Response
// @Router       /api/reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD"))
			return
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	report, err := h.reportService.GetSummary(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
