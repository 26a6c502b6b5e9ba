package order

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"minierp/internal/config"
	"minierp/internal/domain"
	"minierp/internal/dto"
	"minierp/internal/errors"
	"minierp/internal/order/usecase"
	"minierp/internal/testutil"
)

var testOrderConfig = config.OrderConfig{
	TxTimeout:        10 * time.Second,
	MaxRetryAttempts: 5,
	RetryBaseDelay:   10 * time.Millisecond,
}

func setup(t *testing.T) (*usecase.OrderUseCase, func() int, func(price string, stock int) int, func(id int) int) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	n := 0
	customer := func() int {
		n++
		return testutil.InsertCustomer(t, db, "John", "Doe", fmt.Sprintf("john%d@example.com", n))
	}
	product := func(price string, stock int) int {
		n++
		return testutil.InsertProduct(t, db, fmt.Sprintf("Product %d", n), price, stock)
	}
	stock := func(id int) int {
		return testutil.ProductStock(t, db, id)
	}
	return newUseCase(db, testOrderConfig, zap.NewNop()), customer, product, stock
}

func request(customerID int, lines ...dto.CreateOrderItemRequest) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{CustomerID: customerID, OrderItems: lines}
}

func line(productID, qty int) dto.CreateOrderItemRequest {
	return dto.CreateOrderItemRequest{ProductID: productID, Quantity: qty}
}

func TestOrder_WorkedExample(t *testing.T) {
	uc, newCustomer, newProduct, stockOf := setup(t)
	ctx := context.Background()
	customerID := newCustomer()
	productID := newProduct("10.00", 5)

	order, err := uc.CreateOrder(ctx, request(customerID, line(productID, 3)))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("30.00").Equal(order.TotalAmount))
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.True(t, decimal.RequireFromString("10.00").Equal(order.Items[0].UnitPrice))
	assert.NotEmpty(t, order.Items[0].ProductName)
	assert.Equal(t, 2, stockOf(productID))

	_, err = uc.CreateOrder(ctx, request(customerID, line(productID, 3)))
	_, ok := errors.IsInsufficientStockError(err)
	assert.True(t, ok)
	assert.Equal(t, 2, stockOf(productID))
}

func TestOrder_FailedLineRollsBackEarlierLines(t *testing.T) {
	uc, newCustomer, newProduct, stockOf := setup(t)
	ctx := context.Background()
	customerID := newCustomer()
	first := newProduct("5.00", 10)
	second := newProduct("7.00", 1)

	_, err := uc.CreateOrder(ctx, request(customerID, line(first, 4), line(second, 2)))

	_, ok := errors.IsInsufficientStockError(err)
	require.True(t, ok)
	assert.Equal(t, 10, stockOf(first))
	assert.Equal(t, 1, stockOf(second))

	orders, err := uc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrder_DuplicateLinesShareStock(t *testing.T) {
	uc, newCustomer, newProduct, stockOf := setup(t)
	ctx := context.Background()
	customerID := newCustomer()
	productID := newProduct("1.00", 5)

	_, err := uc.CreateOrder(ctx, request(customerID, line(productID, 3), line(productID, 3)))
	_, ok := errors.IsInsufficientStockError(err)
	require.True(t, ok)
	assert.Equal(t, 5, stockOf(productID))

	order, err := uc.CreateOrder(ctx, request(customerID, line(productID, 2), line(productID, 3)))
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 0, stockOf(productID))
}

func TestOrder_DeleteRestoresStock(t *testing.T) {
	uc, newCustomer, newProduct, stockOf := setup(t)
	ctx := context.Background()
	customerID := newCustomer()
	a := newProduct("2.50", 10)
	b := newProduct("4.00", 3)

	order, err := uc.CreateOrder(ctx, request(customerID, line(a, 4), line(b, 3)))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("22.00").Equal(order.TotalAmount))

	_, err = uc.UpdateStatus(ctx, order.ID, "Completed")
	require.NoError(t, err)
	assert.Equal(t, 6, stockOf(a))

	require.NoError(t, uc.DeleteOrder(ctx, order.ID))
	assert.Equal(t, 10, stockOf(a))
	assert.Equal(t, 3, stockOf(b))

	_, err = uc.GetOrder(ctx, order.ID)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)

	err = uc.DeleteOrder(ctx, order.ID)
	_, ok = errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	uc, newCustomer, newProduct, stockOf := setup(t)
	customerID := newCustomer()
	const stock, buyers = 5, 12
	productID := newProduct("3.00", stock)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		shortages int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateOrder(context.Background(), request(customerID, line(productID, 1)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if _, ok := errors.IsInsufficientStockError(err); ok {
				shortages++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, successes)
	assert.Equal(t, buyers-stock, shortages)
	assert.Equal(t, 0, stockOf(productID))
}

func TestOrder_UnknownCustomerAndProduct(t *testing.T) {
	uc, newCustomer, newProduct, stockOf := setup(t)
	ctx := context.Background()
	productID := newProduct("1.00", 5)

	_, err := uc.CreateOrder(ctx, request(99999, line(productID, 1)))
	nf, ok := errors.IsNotFoundError(err)
	require.True(t, ok)
	assert.Equal(t, "Customer not found", nf.Message)

	customerID := newCustomer()
	_, err = uc.CreateOrder(ctx, request(customerID, line(productID, 1), line(99999, 1)))
	nf, ok = errors.IsNotFoundError(err)
	require.True(t, ok)
	assert.Equal(t, "Product with ID 99999 not found", nf.Message)
	assert.Equal(t, 5, stockOf(productID))
}
