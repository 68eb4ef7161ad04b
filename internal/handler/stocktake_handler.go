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

type StocktakeHandler struct {
	stocktakeService service.StocktakeService
}

func NewStocktakeHandler(stocktakeService service.StocktakeService) *StocktakeHandler {
	return &StocktakeHandler{stocktakeService: stocktakeService}
}

func (h *StocktakeHandler) RegisterRoutes(router *gin.RouterGroup) {
	stocktakes := router.Group("/api/stocktakes")
	{
		stocktakes.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateSession)
		stocktakes.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListSessions)
		stocktakes.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetSession)
		stocktakes.PUT("/:id/apply", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ApplySession)
	}
}

// CreateSession records a physical count
// @Summary      Create stocktake session
// @Description  Records counted quantities next to the current system quantities
// @Tags         stocktakes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStocktakeRequest  true  "Create Stocktake Payload"
// @Success      201      {object}  response.Response{data=service.StocktakeResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/stocktakes [post]
func (h *StocktakeHandler) CreateSession(c *gin.Context) {
	var req service.CreateStocktakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	session, err := h.stocktakeService.CreateSession(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, session))
}

// ListSessions returns paginated stocktake sessions
// @Summary      List stocktake sessions
// @Description  Retrieves paginated stocktake sessions, newest first
// @Tags         stocktakes
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/stocktakes [get]
func (h *StocktakeHandler) ListSessions(c *gin.Context) {
	p := pagination.Parse(c)

	sessions, total, err := h.stocktakeService.ListSessions(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, sessions, pagination.NewMeta(p, total)))
}

// GetSession returns one stocktake session with entries
// @Summary      Get stocktake session
// @Description  Retrieves one stocktake session with its entries and variances
// @Tags         stocktakes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response{data=service.StocktakeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/stocktakes/{id} [get]
func (h *StocktakeHandler) GetSession(c *gin.Context) {
	session, err := h.stocktakeService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// ApplySession applies a session's counted quantities
// @Summary      Apply stocktake session
// @Description  Overrides each counted item's stock with the counted quantity; only OPEN sessions can be applied
// @Tags         stocktakes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response{data=service.StocktakeResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/stocktakes/{id}/apply [put]
func (h *StocktakeHandler) ApplySession(c *gin.Context) {
	session, err := h.stocktakeService.ApplySession(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}
