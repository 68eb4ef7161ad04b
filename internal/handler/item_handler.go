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

type ItemHandler struct {
	itemService service.ItemService
}

func NewItemHandler(itemService service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/api/items")
	{
		items.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateItem)
		items.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.ListItems)
		items.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.GetItem)
		items.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateItem)
		items.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeleteItem)
		items.GET("/:id/movements", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListMovements)
	}
}

// CreateItem registers a new stock item
// @Summary      Create item
// @Description  Registers a new stock item with optional opening stock
// @Tags         items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaveItemRequest  true  "Create Item Payload"
// @Success      201      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req service.SaveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// ListItems returns a paginated item list
// @Summary      List items
// @Description  Retrieves a paginated list of items, optionally searched by name or code
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by name or code"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/items [get]
func (h *ItemHandler) ListItems(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.itemService.ListItems(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, items, pagination.NewMeta(p, total)))
}

// GetItem returns one item by ID
// @Summary      Get item
// @Description  Retrieves one item by ID
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.itemService.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// UpdateItem edits descriptive and pricing fields of an item
// @Summary      Update item
// @Description  Edits descriptive and pricing fields; stock and cost are not editable here
// @Tags         items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Item ID"
// @Param        payload  body      service.SaveItemRequest  true  "Update Item Payload"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/items/{id} [put]
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req service.SaveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.itemService.UpdateItem(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem soft deletes an item
// @Summary      Delete item
// @Description  Soft deletes an item; its document history remains intact
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.itemService.DeleteItem(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Item deleted"}))
}

// ListMovements returns the stock movement trail of an item
// @Summary      List item movements
// @Description  Retrieves the paginated stock movement trail of one item
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Item ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /api/items/{id}/movements [get]
func (h *ItemHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)

	movements, total, err := h.itemService.ListMovements(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, movements, pagination.NewMeta(p, total)))
}

// currentUserID reads the authenticated user's ID set by the auth middleware.
func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	return userIDStr
}
