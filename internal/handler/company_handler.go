package handler

import (
	"net/http"

	"shopbooks/internal/middleware"
	"shopbooks/internal/model"
	"shopbooks/internal/service"
	"shopbooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct {
	companyService service.CompanyService
}

func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	company := router.Group("/api/company")
	{
		company.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.GetProfile)
		company.PUT("", middleware.RequireRole(model.RoleAdmin), h.SaveProfile)
	}
}

// GetProfile returns the company profile
// @Summary      Get company profile
// @Tags         company
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.CompanyProfile}
// @Failure      500  {object}  response.Response
// @Router       /api/company [get]
func (h *CompanyHandler) GetProfile(c *gin.Context) {
	profile, err := h.companyService.GetProfile(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// SaveProfile creates or updates the company profile
// @Summary      Save company profile
// @Tags         company
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        profile  body      service.SaveCompanyRequest  true  "Company profile"
// @Success      200      {object}  response.Response{data=model.CompanyProfile}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/company [put]
func (h *CompanyHandler) SaveProfile(c *gin.Context) {
	var req service.SaveCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	profile, err := h.companyService.SaveProfile(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}
