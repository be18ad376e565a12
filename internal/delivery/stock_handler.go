package delivery

import (
	"fmt"
	"net/http"

	"warehouse_service/internal/observability"
	"warehouse_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type StockHandler struct {
	useCase usecase.StockUseCase
	log     *logrus.Logger
}

type stockRequest struct {
	Amount  int  `json:"amount"`
	Receipt bool `json:"receipt"`
}

func NewStockHandler(uc usecase.StockUseCase, logger *logrus.Logger) *StockHandler {
	return &StockHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *StockHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group("/products")
	{
		products.POST("/:id/issue", h.IssueStock)
		products.POST("/:id/receive", h.ReceiveStock)
	}
}

// IssueStock answers with the JSON envelope, or with the PDF itself when
// ?format=pdf is given and a receipt was rendered.
func (h *StockHandler) IssueStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("HTTP Handler: Failed to bind JSON for issue on product ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	wantPDF := c.Query("format") == "pdf"

	timing := observability.StartServerTiming(c.Request.Context(), "backend")
	result, err := h.useCase.IssueStock(c.Request.Context(), id, req.Amount, usecase.IssueOptions{
		Receipt: req.Receipt || wantPDF,
	})
	timing.Stop()
	if err != nil {
		h.log.Warnf("HTTP Handler: Failed to issue %d units of product ID %d: %v", req.Amount, id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to issue stock: "+err.Error())
		return
	}

	if wantPDF && result.Receipt != nil {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Receipt.FileName))
		c.Data(http.StatusOK, result.Receipt.ContentType, result.Receipt.Data)
		return
	}
	SuccessResponse(c, http.StatusOK, fmt.Sprintf("Issued %d units", req.Amount), result)
}

func (h *StockHandler) ReceiveStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("HTTP Handler: Failed to bind JSON for receive on product ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	timing := observability.StartServerTiming(c.Request.Context(), "backend")
	product, err := h.useCase.ReceiveStock(c.Request.Context(), id, req.Amount)
	timing.Stop()
	if err != nil {
		h.log.Warnf("HTTP Handler: Failed to receive %d units of product ID %d: %v", req.Amount, id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to receive stock: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, fmt.Sprintf("Received %d units", req.Amount), product)
}
