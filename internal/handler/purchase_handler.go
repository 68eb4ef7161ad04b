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

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/api/purchases")
	{
		purchases.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.SavePurchase)
		purchases.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListPurchases)
		purchases.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetPurchase)
		purchases.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeletePurchase)
		purchases.POST("/returns", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ReturnPurchase)
	}
}

// SavePurchase creates a new purchase invoice or edits an existing one
// @Summary      Save purchase
// @Description  Creates a purchase invoice, or edits one when id is set; converted invoices raise stock and recalculate average cost
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SavePurchaseRequest  true  "Save Purchase Payload"
// @Success      200      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/purchases [post]
func (h *PurchaseHandler) SavePurchase(c *gin.Context) {
	var req service.SavePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.SavePurchase(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// ListPurchases returns a paginated purchase invoice list
// @Summary      List purchases
// @Description  Retrieves paginated purchase invoices, optionally filtered by status, supplier, or invoice number
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Filter by status (PENDING, CONVERTED, RETURNED, DELETED)"
// @Param        supplier_id  query     string  false  "Filter by supplier"
// @Param        invoice_no   query     string  false  "Filter by invoice number"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.PurchaseFilter{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		InvoiceNo:  c.Query("invoice_no"),
		Page:       p.Page,
		Limit:      p.Limit,
	}
	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, purchases, pagination.NewMeta(p, total)))
}

// GetPurchase returns one purchase invoice by ID
// @Summary      Get purchase
// @Description  Retrieves one purchase invoice with its lines
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.PurchaseResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// DeletePurchase soft deletes a purchase invoice and reverses its effect
// @Summary      Delete purchase
// @Description  Reverses a converted invoice's stock and payable effect, then soft deletes it
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/purchases/{id} [delete]
func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	if err := h.purchaseService.DeletePurchase(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invoice deleted"}))
}

// ReturnPurchase creates a return document for a converted purchase
// @Summary      Return purchase
// @Description  Creates a RETURNED document sending stock back; credit originals also reduce the supplier balance
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PurchaseReturnRequest  true  "Return Purchase Payload"
// @Success      201      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/purchases/returns [post]
func (h *PurchaseHandler) ReturnPurchase(c *gin.Context) {
	var req service.PurchaseReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.purchaseService.ReturnPurchase(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}
