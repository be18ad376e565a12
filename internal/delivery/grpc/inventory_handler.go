package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"warehouse_service/internal/domain"
	"warehouse_service/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type InventoryHandler struct {
	categoryUseCase  usecase.CategoryUseCase
	productUseCase   usecase.ProductUseCase
	stockUseCase     usecase.StockUseCase
	inventoryUseCase usecase.InventoryUseCase
	log              *logrus.Logger
}

func NewInventoryHandler(cuc usecase.CategoryUseCase, puc usecase.ProductUseCase, suc usecase.StockUseCase, iuc usecase.InventoryUseCase, logger *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{
		categoryUseCase:  cuc,
		productUseCase:   puc,
		stockUseCase:     suc,
		inventoryUseCase: iuc,
		log:              logger,
	}
}

func (h *InventoryHandler) ListCategories(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	h.log.Info("gRPC Handler: Received ListCategories request")
	categories, err := h.categoryUseCase.ListCategories(ctx)
	if err != nil {
		h.log.Errorf("gRPC Handler: ListCategories use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return toStruct(map[string]interface{}{"categories": categories})
}

func (h *InventoryHandler) CreateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(req, "name")
	h.log.Infof("gRPC Handler: Received CreateCategory request: Name=%s", name)

	category, err := h.categoryUseCase.CreateCategory(ctx, name, stringField(req, "description"))
	if err != nil {
		h.log.Errorf("gRPC Handler: CreateCategory use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}

	h.log.Infof("gRPC Handler: Category created successfully: ID=%d", category.ID)
	return toStruct(category)
}

func (h *InventoryHandler) DeleteCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req, "id")
	if err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received DeleteCategory request: ID=%d", id)

	if err := h.categoryUseCase.DeleteCategory(ctx, id); err != nil {
		h.log.Errorf("gRPC Handler: DeleteCategory use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(map[string]interface{}{"deleted": id})
}

func (h *InventoryHandler) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filter domain.ProductFilter
	if _, ok := req.GetFields()["category_id"]; ok {
		categoryID, err := intField(req, "category_id")
		if err != nil {
			return nil, err
		}
		filter.CategoryID = categoryID
	}
	filter.NameContains = stringField(req, "q")
	h.log.Infof("gRPC Handler: Received ListProducts request: CategoryID=%d, Query=%q", filter.CategoryID, filter.NameContains)

	products, err := h.productUseCase.ListProducts(ctx, filter)
	if err != nil {
		h.log.Errorf("gRPC Handler: ListProducts use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	if products == nil {
		products = []domain.Product{}
	}

	h.log.Infof("gRPC Handler: Listed %d products successfully", len(products))
	return toStruct(map[string]interface{}{"products": products})
}

func (h *InventoryHandler) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields, err := productFields(req)
	if err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received CreateProduct request: Name=%s", fields.Name)

	product, err := h.productUseCase.CreateProduct(ctx, fields)
	if err != nil {
		h.log.Errorf("gRPC Handler: CreateProduct use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}

	h.log.Infof("gRPC Handler: Product created successfully: ID=%d", product.ID)
	return toStruct(product)
}

func (h *InventoryHandler) UpdateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req, "id")
	if err != nil {
		return nil, err
	}
	fields, err := productFields(req)
	if err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received UpdateProduct request: ID=%d", id)

	product, err := h.productUseCase.UpdateProduct(ctx, id, fields)
	if err != nil {
		h.log.Errorf("gRPC Handler: UpdateProduct use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(product)
}

func (h *InventoryHandler) DeleteProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req, "id")
	if err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received DeleteProduct request: ID=%d", id)

	if err := h.productUseCase.DeleteProduct(ctx, id, boolField(req, "confirmed")); err != nil {
		h.log.Errorf("gRPC Handler: DeleteProduct use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(map[string]interface{}{"deleted": id})
}

func (h *InventoryHandler) IssueStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req, "id")
	if err != nil {
		return nil, err
	}
	amount, err := intField(req, "amount")
	if err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received IssueStock request: ID=%d, Amount=%d", id, amount)

	result, err := h.stockUseCase.IssueStock(ctx, id, amount, usecase.IssueOptions{Receipt: boolField(req, "receipt")})
	if err != nil {
		h.log.Errorf("gRPC Handler: IssueStock use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(result)
}

func (h *InventoryHandler) ReceiveStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req, "id")
	if err != nil {
		return nil, err
	}
	amount, err := intField(req, "amount")
	if err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received ReceiveStock request: ID=%d, Amount=%d", id, amount)

	product, err := h.stockUseCase.ReceiveStock(ctx, id, amount)
	if err != nil {
		h.log.Errorf("gRPC Handler: ReceiveStock use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(product)
}

func (h *InventoryHandler) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	h.log.Info("gRPC Handler: Received Refresh request")
	snapshot, err := h.inventoryUseCase.Refresh(ctx)
	if err != nil {
		h.log.Errorf("gRPC Handler: Refresh use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(snapshot)
}

// toStruct converts v through its JSON form, so messages carry the same
// field names as the HTTP API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func boolField(req *structpb.Struct, name string) bool {
	return req.GetFields()[name].GetBoolValue()
}

func intField(req *structpb.Struct, name string) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "missing field %q", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be a number", name)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be an integer", name)
	}
	return int(n.NumberValue), nil
}

// decimalField accepts either a number or a decimal string.
func decimalField(req *structpb.Struct, name string) (decimal.Decimal, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "missing field %q", name)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "field %q is not a decimal: %v", name, err)
		}
		return d, nil
	}
	return decimal.Zero, status.Errorf(codes.InvalidArgument, "field %q must be a number or string", name)
}

func productFields(req *structpb.Struct) (domain.ProductFields, error) {
	categoryID, err := intField(req, "category_id")
	if err != nil {
		return domain.ProductFields{}, err
	}
	quantity, err := intField(req, "quantity")
	if err != nil {
		return domain.ProductFields{}, err
	}
	price, err := decimalField(req, "unit_price")
	if err != nil {
		return domain.ProductFields{}, err
	}
	return domain.ProductFields{
		Name:       stringField(req, "name"),
		CategoryID: categoryID,
		Quantity:   quantity,
		UnitPrice:  price,
	}, nil
}

func mapDomainErrorToGrpcStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case domain.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.IsConstraint(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case domain.IsBackendUnavailable(err):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Errorf(codes.Internal, "Internal server error: %v", err)
	}
}
