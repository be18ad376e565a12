package client

import (
	"context"
	"encoding/json"
	"fmt"

	grpcHandler "warehouse_service/internal/delivery/grpc"
	"warehouse_service/internal/domain"
	"warehouse_service/internal/usecase"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

type InventoryClient interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int, fields domain.ProductFields) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int, confirmed bool) error
	IssueStock(ctx context.Context, productID, amount int, withReceipt bool) (*usecase.IssueResult, error)
	ReceiveStock(ctx context.Context, productID, amount int) (*domain.Product, error)
	Refresh(ctx context.Context) (*usecase.Snapshot, error)
	Close() error
}

type inventoryGRPCClient struct {
	conn *grpc.ClientConn
	log  *logrus.Logger
}

// NewInventoryClient connects lazily to target; extra options are appended
// after the default insecure transport credentials.
func NewInventoryClient(target string, logger *logrus.Logger, opts ...grpc.DialOption) (InventoryClient, error) {
	logger.Infof("InventoryClient: Creating gRPC client for target: %s", target)
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		logger.Errorf("InventoryClient: Failed to create client for %s: %v", target, err)
		return nil, fmt.Errorf("failed to connect to inventory service at %s: %w", target, err)
	}
	return NewInventoryClientFromConn(conn, logger), nil
}

func NewInventoryClientFromConn(conn *grpc.ClientConn, logger *logrus.Logger) InventoryClient {
	return &inventoryGRPCClient{conn: conn, log: logger}
}

func (c *inventoryGRPCClient) Close() error {
	if c.conn != nil {
		c.log.Info("InventoryClient: Closing gRPC connection")
		return c.conn.Close()
	}
	return nil
}

// call invokes method with req and decodes the reply's JSON form into out.
func (c *inventoryGRPCClient) call(ctx context.Context, method string, req map[string]interface{}, out interface{}) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("invalid %s request: %w", method, err)
	}
	reply := new(structpb.Struct)
	c.log.Debugf("InventoryClient(gRPC): Calling %s", method)
	if err := c.conn.Invoke(ctx, "/"+grpcHandler.ServiceName+"/"+method, in, reply); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(reply.AsMap())
	if err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", method, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", method, err)
	}
	return nil
}

func productRequest(fields domain.ProductFields) map[string]interface{} {
	return map[string]interface{}{
		"name":        fields.Name,
		"category_id": fields.CategoryID,
		"quantity":    fields.Quantity,
		"unit_price":  fields.UnitPrice.String(),
	}
}

func (c *inventoryGRPCClient) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var reply struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := c.call(ctx, "ListCategories", map[string]interface{}{}, &reply); err != nil {
		return nil, err
	}
	return reply.Categories, nil
}

func (c *inventoryGRPCClient) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	var category domain.Category
	err := c.call(ctx, "CreateCategory", map[string]interface{}{"name": name, "description": description}, &category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *inventoryGRPCClient) DeleteCategory(ctx context.Context, id int) error {
	return c.call(ctx, "DeleteCategory", map[string]interface{}{"id": id}, nil)
}

func (c *inventoryGRPCClient) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	req := map[string]interface{}{}
	if filter.CategoryID > 0 {
		req["category_id"] = filter.CategoryID
	}
	if filter.NameContains != "" {
		req["q"] = filter.NameContains
	}
	var reply struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.call(ctx, "ListProducts", req, &reply); err != nil {
		return nil, err
	}
	return reply.Products, nil
}

func (c *inventoryGRPCClient) CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	var product domain.Product
	if err := c.call(ctx, "CreateProduct", productRequest(fields), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *inventoryGRPCClient) UpdateProduct(ctx context.Context, id int, fields domain.ProductFields) (*domain.Product, error) {
	req := productRequest(fields)
	req["id"] = id
	var product domain.Product
	if err := c.call(ctx, "UpdateProduct", req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *inventoryGRPCClient) DeleteProduct(ctx context.Context, id int, confirmed bool) error {
	return c.call(ctx, "DeleteProduct", map[string]interface{}{"id": id, "confirmed": confirmed}, nil)
}

func (c *inventoryGRPCClient) IssueStock(ctx context.Context, productID, amount int, withReceipt bool) (*usecase.IssueResult, error) {
	var result usecase.IssueResult
	req := map[string]interface{}{"id": productID, "amount": amount, "receipt": withReceipt}
	if err := c.call(ctx, "IssueStock", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *inventoryGRPCClient) ReceiveStock(ctx context.Context, productID, amount int) (*domain.Product, error) {
	var product domain.Product
	if err := c.call(ctx, "ReceiveStock", map[string]interface{}{"id": productID, "amount": amount}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *inventoryGRPCClient) Refresh(ctx context.Context) (*usecase.Snapshot, error) {
	var snapshot usecase.Snapshot
	if err := c.call(ctx, "Refresh", map[string]interface{}{}, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
