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

type SettlementHandler struct {
	settlementService service.SettlementService
}

func NewSettlementHandler(settlementService service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

func (h *SettlementHandler) RegisterRoutes(router *gin.RouterGroup) {
	receipts := router.Group("/api/receipts")
	{
		receipts.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.CreateReceipt)
		receipts.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.ListReceipts)
		receipts.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeleteReceipt)
	}

	payments := router.Group("/api/payments")
	{
		payments.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreatePayment)
		payments.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListPayments)
		payments.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeletePayment)
	}
}

// CreateReceipt records money received from a customer
// @Summary      Create receipt
// @Description  Records a customer receipt and lowers the customer's balance
// @Tags         settlements
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReceiptRequest  true  "Create Receipt Payload"
// @Success      201      {object}  response.Response{data=service.ReceiptResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/receipts [post]
func (h *SettlementHandler) CreateReceipt(c *gin.Context) {
	var req service.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	receipt, err := h.settlementService.CreateReceipt(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, receipt))
}

// ListReceipts returns a paginated receipt list
// @Summary      List receipts
// @Description  Retrieves paginated receipts, optionally filtered by customer
// @Tags         settlements
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id  query     string  false  "Filter by customer"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/receipts [get]
func (h *SettlementHandler) ListReceipts(c *gin.Context) {
	p := pagination.Parse(c)

	receipts, total, err := h.settlementService.ListReceipts(c.Request.Context(), c.Query("customer_id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, receipts, pagination.NewMeta(p, total)))
}

// DeleteReceipt removes a manual receipt
// @Summary      Delete receipt
// @Description  Removes a manual receipt and restores the customer's balance; auto receipts are rejected
// @Tags         settlements
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Receipt ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/receipts/{id} [delete]
func (h *SettlementHandler) DeleteReceipt(c *gin.Context) {
	if err := h.settlementService.DeleteReceipt(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Receipt deleted"}))
}

// CreatePayment records money paid to a supplier
// @Summary      Create payment
// @Description  Records a supplier payment and lowers the supplier's balance
// @Tags         settlements
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentRequest  true  "Create Payment Payload"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payments [post]
func (h *SettlementHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.settlementService.CreatePayment(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// ListPayments returns a paginated payment list
// @Summary      List payments
// @Description  Retrieves paginated payments, optionally filtered by supplier
// @Tags         settlements
// @Security     BearerAuth
// @Produce      json
// @Param        supplier_id  query     string  false  "Filter by supplier"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/payments [get]
func (h *SettlementHandler) ListPayments(c *gin.Context) {
	p := pagination.Parse(c)

	payments, total, err := h.settlementService.ListPayments(c.Request.Context(), c.Query("supplier_id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, payments, pagination.NewMeta(p, total)))
}

// DeletePayment removes a payment
// @Summary      Delete payment
// @Description  Removes a payment and restores the supplier's balance
// @Tags         settlements
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/payments/{id} [delete]
func (h *SettlementHandler) DeletePayment(c *gin.Context) {
	if err := h.settlementService.DeletePayment(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Payment deleted"}))
}
