package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"warehouse_service/internal/domain"
	"warehouse_service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *repository.MemoryStore
	log        *logrus.Logger
	categories CategoryUseCase
	products   ProductUseCase
	stock      StockUseCase
	inventory  InventoryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := repository.NewMemoryStore()
	return &fixture{
		store:      store,
		log:        logger,
		categories: NewCategoryUseCase(store, store, logger),
		products:   NewProductUseCase(store, store, logger),
		stock:      NewStockUseCase(store, nil, time.UTC, logger),
		inventory:  NewInventoryUseCase(store, store, logger),
	}
}

func (f *fixture) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := f.categories.CreateCategory(context.Background(), name, "")
	require.NoError(t, err)
	return c
}

func (f *fixture) product(t *testing.T, name string, categoryID, quantity int, price string) *domain.Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), domain.ProductFields{
		Name:       name,
		CategoryID: categoryID,
		Quantity:   quantity,
		UnitPrice:  decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return p
}

func TestCreateCategoryTrimsAndValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.categories.CreateCategory(ctx, "  Tools  ", " Hand tools ")
	require.NoError(t, err)
	assert.Equal(t, "Tools", c.Name)
	assert.Equal(t, "Hand tools", c.Description)

	_, err = f.categories.CreateCategory(ctx, "   ", "x")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	all, err := f.categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetCategoryByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")

	got, err := f.categories.GetCategoryByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = f.categories.GetCategoryByID(ctx, 0)
	assert.True(t, domain.IsValidation(err))

	_, err = f.categories.GetCategoryByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCategoryWithProductsIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	f.product(t, "Hammer", c.ID, 3, "12.50")

	err := f.categories.DeleteCategory(ctx, c.ID)
	require.Error(t, err)
	assert.True(t, domain.IsConstraint(err))

	all, err := f.categories.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, c.ID, all[0].ID)
}

func TestDeleteEmptyCategoryRemovesIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.category(t, "Paint")
	drop := f.category(t, "Tools")

	require.NoError(t, f.categories.DeleteCategory(ctx, drop.ID))

	all, err := f.categories.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)

	assert.ErrorIs(t, f.categories.DeleteCategory(ctx, drop.ID), domain.ErrNotFound)
}

func TestCreateProductRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")

	f.product(t, "Widget", c.ID, 10, "1.5")

	products, err := f.products.ListProducts(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)
	assert.Equal(t, 10, products[0].Quantity)
	assert.True(t, products[0].UnitPrice.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, "Tools", products[0].CategoryName)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Tools")

	tests := []struct {
		name   string
		fields domain.ProductFields
		field  string
	}{
		{"empty name", domain.ProductFields{Name: "  ", CategoryID: c.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}, "name"},
		{"negative quantity", domain.ProductFields{Name: "A", CategoryID: c.ID, Quantity: -1, UnitPrice: decimal.NewFromInt(1)}, "quantity"},
		{"negative price", domain.ProductFields{Name: "A", CategoryID: c.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}, "unit_price"},
		{"no category", domain.ProductFields{Name: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}, "category_id"},
		{"unknown category", domain.ProductFields{Name: "A", CategoryID: 99, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}, "category_id"},
		{"quantity above limit", domain.ProductFields{Name: "A", CategoryID: c.ID, Quantity: domain.MaxQuantity + 1, UnitPrice: decimal.NewFromInt(1)}, "quantity"},
		{"price above limit", domain.ProductFields{Name: "A", CategoryID: c.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("10000000000")}, "unit_price"},
		{"price with sub-cent digits", domain.ProductFields{Name: "A", CategoryID: c.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("1.005")}, "unit_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.products.CreateProduct(context.Background(), tt.fields)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	products, err := f.products.ListProducts(context.Background(), domain.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestUpdateProductReplacesAllFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tools := f.category(t, "Tools")
	paint := f.category(t, "Paint")
	p := f.product(t, "Widget", tools.ID, 10, "1.5")

	updated, err := f.products.UpdateProduct(ctx, p.ID, domain.ProductFields{
		Name:       "Brush",
		CategoryID: paint.ID,
		Quantity:   2,
		UnitPrice:  decimal.RequireFromString("7.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Brush", updated.Name)
	assert.Equal(t, paint.ID, updated.CategoryID)
	assert.Equal(t, "Paint", updated.CategoryName)
	assert.Equal(t, 2, updated.Quantity)

	_, err = f.products.UpdateProduct(ctx, p.ID, domain.ProductFields{Name: "Brush", CategoryID: paint.ID, Quantity: -3})
	assert.True(t, domain.IsValidation(err))

	_, err = f.products.UpdateProduct(ctx, 99, domain.ProductFields{Name: "Brush", CategoryID: paint.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProductRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	p := f.product(t, "Widget", c.ID, 10, "1.5")

	err := f.products.DeleteProduct(ctx, p.ID, false)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	_, err = f.products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, f.products.DeleteProduct(ctx, p.ID, true))
	_, err = f.products.GetProductByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListProductsFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tools := f.category(t, "Tools")
	paint := f.category(t, "Paint")
	f.product(t, "Claw hammer", tools.ID, 3, "12.50")
	f.product(t, "Roller", paint.ID, 9, "4")

	got, err := f.products.ListProducts(ctx, domain.ProductFilter{NameContains: "  HAMMER "})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Claw hammer", got[0].Name)

	got, err = f.products.ListProducts(ctx, domain.ProductFilter{CategoryID: paint.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Roller", got[0].Name)
}

func TestIssueStockDecrementsQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	p := f.product(t, "Widget", c.ID, 10, "1.5")

	result, err := f.stock.IssueStock(ctx, p.ID, 4, IssueOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6, result.Product.Quantity)
	assert.Nil(t, result.Receipt)

	current, err := f.products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, current.Quantity)
}

func TestIssueStockOverQuantityLeavesStockUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	p := f.product(t, "Widget", c.ID, 3, "1.5")

	_, err := f.stock.IssueStock(ctx, p.ID, 4, IssueOptions{Receipt: true})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	current, err := f.products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.Quantity)
}

func TestIssueStockRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Tools")
	p := f.product(t, "Widget", c.ID, 3, "1.5")

	for _, amount := range []int{0, -2} {
		_, err := f.stock.IssueStock(context.Background(), p.ID, amount, IssueOptions{})
		assert.True(t, domain.IsValidation(err), "amount %d", amount)
	}
	_, err := f.stock.IssueStock(context.Background(), 77, 1, IssueOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIssueStockWithReceipt(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Tools")
	p := f.product(t, "Łódka", c.ID, 5, "100")

	warsaw := time.FixedZone("CET", 3600)
	uc := NewStockUseCase(f.store, nil, warsaw, f.log)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	result, err := uc.IssueStock(context.Background(), p.ID, 2, IssueOptions{Receipt: true, At: at})
	require.NoError(t, err)
	require.NotNil(t, result.Receipt)
	assert.Empty(t, result.ReceiptError)
	assert.Equal(t, "receipt_lodka_20240102_040405.pdf", result.Receipt.FileName)
	assert.Equal(t, "application/pdf", result.Receipt.ContentType)
	assert.Equal(t, 3, result.Product.Quantity)

	// same issuance at the same instant renders the same bytes
	again, err := uc.IssueStock(context.Background(), p.ID, 2, IssueOptions{Receipt: true, At: at})
	require.NoError(t, err)
	assert.Equal(t, result.Receipt.Data, again.Receipt.Data)
}

func TestReceiveStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	p := f.product(t, "Widget", c.ID, 0, "1.5")

	after, err := f.stock.ReceiveStock(ctx, p.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, after.Quantity)

	_, err = f.stock.ReceiveStock(ctx, p.ID, 0)
	assert.True(t, domain.IsValidation(err))

	_, err = f.stock.ReceiveStock(ctx, 99, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateProductAcceptsLimits(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Tools")

	p := f.product(t, "Pallet", c.ID, domain.MaxQuantity, "9999999999.99")
	assert.Equal(t, domain.MaxQuantity, p.Quantity)
	assert.True(t, p.UnitPrice.Equal(domain.MaxUnitPrice))

	cents := f.product(t, "Washer", c.ID, 1, "0.10")
	assert.True(t, cents.UnitPrice.Equal(decimal.RequireFromString("0.1")))
}

func TestReceiveStockRefusesToOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	p := f.product(t, "Widget", c.ID, 10, "1.5")

	for _, amount := range []int{domain.MaxQuantity, domain.MaxQuantity + 1} {
		_, err := f.stock.ReceiveStock(ctx, p.ID, amount)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), "expected validation error for %d, got %v", amount, err)
		assert.Equal(t, "amount", verr.Field)
	}

	current, err := f.products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, current.Quantity)

	after, err := f.stock.ReceiveStock(ctx, p.ID, domain.MaxQuantity-10)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxQuantity, after.Quantity)

	snapshot, err := f.inventory.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Products, 1)
	assert.Equal(t, domain.MaxQuantity, snapshot.Aggregates.TotalQuantity)
}

func TestStockNeverNegativeUnderConcurrentIssues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	p := f.product(t, "Widget", c.ID, 30, "1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.stock.IssueStock(ctx, p.ID, 3, IssueOptions{})
		}()
		go func() {
			defer wg.Done()
			_, _ = f.stock.ReceiveStock(ctx, p.ID, 1)
		}()
	}
	wg.Wait()

	current, err := f.products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, current.Quantity, 0)
}

func TestComputeAggregates(t *testing.T) {
	agg := ComputeAggregates([]domain.Product{
		{Quantity: 10, UnitPrice: decimal.RequireFromString("2.5")},
		{Quantity: 3, UnitPrice: decimal.NewFromInt(4)},
	})
	assert.Equal(t, 13, agg.TotalQuantity)
	assert.True(t, agg.TotalValue.Equal(decimal.NewFromInt(37)), agg.TotalValue.String())
	assert.Equal(t, 1, agg.LowStockCount)

	empty := ComputeAggregates(nil)
	assert.Zero(t, empty.TotalQuantity)
	assert.True(t, empty.TotalValue.IsZero())
	assert.Zero(t, empty.LowStockCount)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snapshot, err := f.inventory.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, snapshot.CanCreateProduct)
	assert.Empty(t, snapshot.Products)

	c := f.category(t, "Tools")
	f.product(t, "Widget", c.ID, 10, "2.5")
	f.product(t, "Bolt", c.ID, 3, "4")

	snapshot, err = f.inventory.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, snapshot.CanCreateProduct)
	assert.Len(t, snapshot.Categories, 1)
	assert.Len(t, snapshot.Products, 2)
	assert.Equal(t, 13, snapshot.Aggregates.TotalQuantity)
	assert.True(t, snapshot.Aggregates.TotalValue.Equal(decimal.NewFromInt(37)))
	assert.Equal(t, 1, snapshot.Aggregates.LowStockCount)
}
