package delivery

import (
	"context"
	"net/http"

	"warehouse_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type InventoryHandler struct {
	useCase usecase.InventoryUseCase
	backend Pinger
	log     *logrus.Logger
}

func NewInventoryHandler(uc usecase.InventoryUseCase, backend Pinger, logger *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{
		useCase: uc,
		backend: backend,
		log:     logger,
	}
}

func (h *InventoryHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/inventory", h.Refresh)
	router.GET("/health", h.Health)
}

func (h *InventoryHandler) Refresh(c *gin.Context) {
	snapshot, err := h.useCase.Refresh(c.Request.Context())
	if err != nil {
		h.log.Errorf("HTTP Handler: Failed to refresh inventory: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to load inventory: "+err.Error())
		return
	}
	respondWithETag(c, "Inventory retrieved successfully", snapshot)
}

func (h *InventoryHandler) Health(c *gin.Context) {
	if err := h.backend.Ping(c.Request.Context()); err != nil {
		h.log.Warnf("HTTP Handler: Health check failed: %v", err)
		ErrorResponse(c, http.StatusServiceUnavailable, "Storage backend unavailable: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "OK", nil)
}
