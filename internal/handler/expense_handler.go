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

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	{
		expenses.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateExpense)
		expenses.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListExpenses)
		expenses.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeleteExpense)
	}
}

// CreateExpense records an operating expense
// @Summary      Create expense
// @Tags         expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        expense  body      service.CreateExpenseRequest  true  "Expense"
// @Success      201      {object}  response.Response{data=service.ExpenseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// ListExpenses returns recorded expenses
// @Summary      List expenses
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        category  query     string  false  "Filter by category"
// @Param        page      query     int     false  "Page"
// @Param        limit     query     int     false  "Limit"
// @Success      200       {object}  response.Response{data=[]service.ExpenseResponse}
// @Failure      500       {object}  response.Response
// @Router       /api/expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	p := pagination.Parse(c)
	expenses, total, err := h.expenseService.ListExpenses(c.Request.Context(), c.Query("category"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, expenses, pagination.NewMeta(p, total)))
}

// DeleteExpense removes an expense record
// @Summary      Delete expense
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenseService.DeleteExpense(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Expense deleted"}))
}
