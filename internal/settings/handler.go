package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/settings/company", h.GetCompanyProfile)
	r.PUT("/settings/company", h.UpdateCompanyProfile)
}

func (h *Handler) GetCompanyProfile(c *gin.Context) {
	profile, err := h.service.GetCompanyProfile(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load company profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateCompanyProfile(c *gin.Context) {
	var payload CompanyProfile
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.service.UpdateCompanyProfile(c.Request.Context(), &payload)
	if err != nil {
		h.logger.Error("Failed to save company profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
