package integration

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agendalink/gateway/internal/handler"
	"github.com/agendalink/gateway/internal/integration"
	"github.com/agendalink/gateway/internal/model"
)

// Handler exposes the read-only integration catalog the admin UI
// renders configuration forms from.
type Handler struct {
	registry *integration.Registry
}

func NewHandler(registry *integration.Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	integrations := r.Group("/integrations")
	{
		integrations.GET("", h.ListIntegrations)
		integrations.GET("/:type", h.GetIntegration)
		integrations.GET("/:type/endpoints", h.ListEndpoints)
	}
}

// ListIntegrations returns all metadata, optionally filtered by
// ?capability=.
func (h *Handler) ListIntegrations(c *gin.Context) {
	if capability := c.Query("capability"); capability != "" {
		metadata := h.registry.ByCapability(model.IntegrationCapability(capability))
		c.JSON(http.StatusOK, handler.NewSuccessResponse(metadata))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.registry.AllMetadata()))
}

func (h *Handler) GetIntegration(c *gin.Context) {
	metadata, err := h.registry.Metadata(model.IntegrationType(c.Param("type")))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(metadata))
}

func (h *Handler) ListEndpoints(c *gin.Context) {
	endpoints, err := h.registry.Endpoints(model.IntegrationType(c.Param("type")))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(endpoints))
}
