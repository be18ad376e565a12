package delivery

import (
	"net/http"
	"strconv"

	"warehouse_service/internal/domain"
	"warehouse_service/internal/observability"
	"warehouse_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	useCase usecase.ProductUseCase
	log     *logrus.Logger
}

// productRequest carries every product field; quantity and unit_price are
// pointers so that an explicit zero is distinguishable from a missing field.
type productRequest struct {
	Name       string           `json:"name"`
	CategoryID int              `json:"category_id"`
	Quantity   *int             `json:"quantity" binding:"required"`
	UnitPrice  *decimal.Decimal `json:"unit_price" binding:"required"`
}

func (r productRequest) fields() domain.ProductFields {
	return domain.ProductFields{
		Name:       r.Name,
		CategoryID: r.CategoryID,
		Quantity:   *r.Quantity,
		UnitPrice:  *r.UnitPrice,
	}
}

func NewProductHandler(uc usecase.ProductUseCase, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProductByID)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("HTTP Handler: Failed to bind JSON for create product: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	timing := observability.StartServerTiming(c.Request.Context(), "backend")
	product, err := h.useCase.CreateProduct(c.Request.Context(), req.fields())
	timing.Stop()
	if err != nil {
		h.log.Warnf("HTTP Handler: Failed to create product '%s': %v", req.Name, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to create product: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "Product created successfully", product)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.useCase.GetProductByID(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("HTTP Handler: Failed to get product by ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve product: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("HTTP Handler: Failed to bind JSON for update product ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	timing := observability.StartServerTiming(c.Request.Context(), "backend")
	product, err := h.useCase.UpdateProduct(c.Request.Context(), id, req.fields())
	timing.Stop()
	if err != nil {
		h.log.Warnf("HTTP Handler: Failed to update product ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to update product: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirmed"))

	timing := observability.StartServerTiming(c.Request.Context(), "backend")
	err := h.useCase.DeleteProduct(c.Request.Context(), id, confirmed)
	timing.Stop()
	if err != nil {
		h.log.Warnf("HTTP Handler: Failed to delete product ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to delete product: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	var filter domain.ProductFilter
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := strconv.Atoi(raw)
		if err != nil || categoryID <= 0 {
			ErrorResponse(c, http.StatusBadRequest, "Invalid category_id format")
			return
		}
		filter.CategoryID = categoryID
	}
	filter.NameContains = c.Query("q")

	products, err := h.useCase.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.log.Errorf("HTTP Handler: Failed to list products: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve products: "+err.Error())
		return
	}
	if len(products) == 0 {
		SuccessResponse(c, http.StatusOK, "No products found matching criteria", []domain.Product{})
		return
	}
	respondWithETag(c, "Products retrieved successfully", products)
}
