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

type SalesHandler struct {
	salesService service.SalesService
}

func NewSalesHandler(salesService service.SalesService) *SalesHandler {
	return &SalesHandler{salesService: salesService}
}

func (h *SalesHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/api/sales")
	{
		sales.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.SaveSale)
		sales.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.ListSales)
		sales.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.GetSale)
		sales.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeleteSale)
		sales.POST("/returns", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ReturnSale)
	}
}

// SaveSale creates a new sales invoice or edits an existing one
// @Summary      Save sale
// @Description  Creates a sales invoice, or edits one when id is set; completed invoices move stock and settle immediately
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaveSaleRequest  true  "Save Sale Payload"
// @Success      200      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/sales [post]
func (h *SalesHandler) SaveSale(c *gin.Context) {
	var req service.SaveSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.salesService.SaveSale(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// ListSales returns a paginated sales invoice list
// @Summary      List sales
// @Description  Retrieves paginated sales invoices, optionally filtered by status, customer, or invoice number
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Filter by status (PENDING, COMPLETED, RETURNED, DELETED)"
// @Param        customer_id  query     string  false  "Filter by customer"
// @Param        invoice_no   query     string  false  "Filter by invoice number"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/sales [get]
func (h *SalesHandler) ListSales(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.SaleFilter{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		InvoiceNo:  c.Query("invoice_no"),
		Page:       p.Page,
		Limit:      p.Limit,
	}
	sales, total, err := h.salesService.ListSales(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, sales, pagination.NewMeta(p, total)))
}

// GetSale returns one sales invoice by ID
// @Summary      Get sale
// @Description  Retrieves one sales invoice with its lines
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SalesHandler) GetSale(c *gin.Context) {
	sale, err := h.salesService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// DeleteSale soft deletes a sales invoice and reverses its effect
// @Summary      Delete sale
// @Description  Reverses a completed invoice's stock and settlement effect, then soft deletes it
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/sales/{id} [delete]
func (h *SalesHandler) DeleteSale(c *gin.Context) {
	if err := h.salesService.DeleteSale(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invoice deleted"}))
}

// ReturnSale creates a return document for a completed sale
// @Summary      Return sale
// @Description  Creates a RETURNED document adding stock back; credit originals also reduce the customer balance
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaleReturnRequest  true  "Return Sale Payload"
// @Success      201      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/sales/returns [post]
func (h *SalesHandler) ReturnSale(c *gin.Context) {
	var req service.SaleReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.salesService.ReturnSale(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}
