package handler

import (
	"net/http"
	"time"

	"shopbooks/internal/middleware"
	"shopbooks/internal/model"
	"shopbooks/internal/service"
	"shopbooks/pkg/pagination"
	"shopbooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type PartyHandler struct {
	partyService service.PartyService
}

func NewPartyHandler(partyService service.PartyService) *PartyHandler {
	return &PartyHandler{partyService: partyService}
}

func (h *PartyHandler) RegisterRoutes(router *gin.RouterGroup) {
	parties := router.Group("/api/parties")
	{
		parties.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateParty)
		parties.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.ListParties)
		parties.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.GetParty)
		parties.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateParty)
		parties.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeleteParty)
		parties.GET("/:id/statement", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetStatement)
	}
}

// CreateParty registers a customer or supplier
// @Summary      Create party
// @Description  Registers a customer, supplier, or both, with an optional opening balance
// @Tags         parties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SavePartyRequest  true  "Create Party Payload"
// @Success      201      {object}  response.Response{data=service.PartyResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/parties [post]
func (h *PartyHandler) CreateParty(c *gin.Context) {
	var req service.SavePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	party, err := h.partyService.CreateParty(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, party))
}

// ListParties returns a paginated party list
// @Summary      List parties
// @Description  Retrieves paginated parties, optionally filtered by type and searched by name
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        type    query     string  false  "Filter by type (CUSTOMER, SUPPLIER, BOTH)"
// @Param        search  query     string  false  "Search by name"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/parties [get]
func (h *PartyHandler) ListParties(c *gin.Context) {
	p := pagination.Parse(c)

	parties, total, err := h.partyService.ListParties(c.Request.Context(), c.Query("type"), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, parties, pagination.NewMeta(p, total)))
}

// GetParty returns one party by ID
// @Summary      Get party
// @Description  Retrieves one party by ID
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Party ID"
// @Success      200  {object}  response.Response{data=service.PartyResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/parties/{id} [get]
func (h *PartyHandler) GetParty(c *gin.Context) {
	party, err := h.partyService.GetParty(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, party))
}

// UpdateParty edits a party's descriptive fields
// @Summary      Update party
// @Description  Edits a party's descriptive fields; balance moves only through documents
// @Tags         parties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Party ID"
// @Param        payload  body      service.SavePartyRequest  true  "Update Party Payload"
// @Success      200      {object}  response.Response{data=service.PartyResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/parties/{id} [put]
func (h *PartyHandler) UpdateParty(c *gin.Context) {
	var req service.SavePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	party, err := h.partyService.UpdateParty(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, party))
}

// DeleteParty soft deletes a party with zero balance
// @Summary      Delete party
// @Description  Soft deletes a party; rejected while an outstanding balance remains
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Party ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/parties/{id} [delete]
func (h *PartyHandler) DeleteParty(c *gin.Context) {
	if err := h.partyService.DeleteParty(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Party deleted"}))
}

// GetStatement returns the reconstructed running-balance statement
// @Summary      Get party statement
// @Description  Rebuilds the running-balance statement for a party over a date range by replaying its documents
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true   "Party ID"
// @Param        from  query     string  false  "Range start (YYYY-MM-DD, default 30 days ago)"
// @Param        to    query     string  false  "Range end (YYYY-MM-DD, default today)"
// @Success      200   {object}  response.Response{data=service.StatementResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/parties/{id}/statement [get]
func (h *PartyHandler) GetStatement(c *gin.Context) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
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
		// Inclusive through the end of the day.
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	stmt, err := h.partyService.GetStatement(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stmt))
}
