package usecase

import (
	"context"
	"time"

	"warehouse_service/internal/domain"
	"warehouse_service/internal/observability"
	"warehouse_service/internal/receipt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type IssueOptions struct {
	// Receipt requests a rendered receipt in the result.
	Receipt bool
	// At overrides the receipt timestamp; zero means now.
	At time.Time
}

// IssueResult is returned by IssueStock. Receipt is only set when requested;
// the caller decides whether to keep it.
type IssueResult struct {
	Product      *domain.Product   `json:"product"`
	Receipt      *receipt.Document `json:"receipt,omitempty"`
	ReceiptError string            `json:"receipt_error,omitempty"`
}

type StockUseCase interface {
	IssueStock(ctx context.Context, productID, amount int, opts IssueOptions) (*IssueResult, error)
	ReceiveStock(ctx context.Context, productID, amount int) (*domain.Product, error)
}

type stockUseCase struct {
	productRepo domain.ProductRepository
	metrics     *observability.StockMetrics
	now         func() time.Time
	location    *time.Location
	log         *logrus.Logger
}

func NewStockUseCase(pRepo domain.ProductRepository, metrics *observability.StockMetrics, location *time.Location, logger *logrus.Logger) StockUseCase {
	if location == nil {
		location = time.UTC
	}
	return &stockUseCase{
		productRepo: pRepo,
		metrics:     metrics,
		now:         time.Now,
		location:    location,
		log:         logger,
	}
}

// IssueStock removes amount units. The bound check and the decrement happen
// in one conditional repository update, so a rejected issuance leaves the
// quantity untouched and concurrent issuances cannot overdraw.
func (uc *stockUseCase) IssueStock(ctx context.Context, productID, amount int, opts IssueOptions) (result *IssueResult, err error) {
	ctx, span := observability.StartSpan(ctx, "IssueStock",
		attribute.Int("product.id", productID),
		attribute.Int("stock.amount", amount))
	defer func() { observability.EndSpan(span, err) }()

	if productID <= 0 {
		return nil, domain.NewValidationError("id", "product id must be positive")
	}
	if amount <= 0 {
		uc.log.Warnf("Use Case: Rejected issue of %d units for product ID %d", amount, productID)
		return nil, domain.NewValidationError("amount", "must be at least 1, got %d", amount)
	}

	product, err := uc.productRepo.DecreaseQuantityIfEnough(ctx, productID, amount)
	if err != nil {
		uc.log.Warnf("Use Case: Issue of %d units for product ID %d failed: %v", amount, productID, err)
		return nil, err
	}
	uc.metrics.Issued(ctx, productID, amount)
	uc.log.Infof("Use Case: Issued %d units of product ID %d, %d left", amount, productID, product.Quantity)

	result = &IssueResult{Product: product}
	if !opts.Receipt {
		return result, nil
	}

	at := opts.At
	if at.IsZero() {
		at = uc.now()
	}
	doc, rerr := receipt.New(product.Name, amount, product.UnitPrice, at.In(uc.location))
	if rerr != nil {
		// the issuance is already persisted; report the receipt failure alongside it
		uc.log.Errorf("Use Case: Receipt rendering failed for product ID %d: %v", productID, rerr)
		result.ReceiptError = rerr.Error()
		return result, nil
	}
	result.Receipt = doc
	return result, nil
}

func (uc *stockUseCase) ReceiveStock(ctx context.Context, productID, amount int) (product *domain.Product, err error) {
	ctx, span := observability.StartSpan(ctx, "ReceiveStock",
		attribute.Int("product.id", productID),
		attribute.Int("stock.amount", amount))
	defer func() { observability.EndSpan(span, err) }()

	if productID <= 0 {
		return nil, domain.NewValidationError("id", "product id must be positive")
	}
	if amount < 1 || amount > domain.MaxQuantity {
		uc.log.Warnf("Use Case: Rejected receive of %d units for product ID %d", amount, productID)
		return nil, domain.NewValidationError("amount", "must be between 1 and %d, got %d", domain.MaxQuantity, amount)
	}

	product, err = uc.productRepo.IncreaseQuantity(ctx, productID, amount)
	if err != nil {
		uc.log.Warnf("Use Case: Receive of %d units for product ID %d failed: %v", amount, productID, err)
		return nil, err
	}
	uc.metrics.Received(ctx, productID, amount)
	uc.log.Infof("Use Case: Received %d units of product ID %d, now %d", amount, productID, product.Quantity)
	return product, nil
}
