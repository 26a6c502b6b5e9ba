package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minierp/internal/domain"
	"minierp/internal/testutil"
)

// Unit Tests

func TestNewMySQLOrderItemRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLOrderItemRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

// Integration Tests

func TestOrderItemRepository_InsertAndFindByOrderID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	orderRepo := NewMySQLOrderRepository(db)
	itemRepo := NewMySQLOrderItemRepository(db)
	customerID := testutil.InsertCustomer(t, db, "John", "Doe", "john@example.com")
	p1 := testutil.InsertProduct(t, db, "Widget", "10.00", 5)
	p2 := testutil.InsertProduct(t, db, "Gadget", "2.50", 5)
	order := insertOrder(t, db, orderRepo, customerID, "ORD-I")

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	id1, err := itemRepo.Insert(context.Background(), tx, domain.OrderItem{
		OrderID: order.ID, ProductID: p1, Quantity: 2,
		UnitPrice: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)
	id2, err := itemRepo.Insert(context.Background(), tx, domain.OrderItem{
		OrderID: order.ID, ProductID: p2, Quantity: 4,
		UnitPrice: decimal.RequireFromString("2.50"), Subtotal: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	items, err := itemRepo.FindByOrderID(context.Background(), tx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Widget", items[0].ProductName)
	assert.Equal(t, "Gadget", items[1].ProductName)
	assert.Equal(t, "10.00", items[1].Subtotal.StringFixed(2))
}

func TestOrderItemRepository_Insert_ZeroQuantityRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	orderRepo := NewMySQLOrderRepository(db)
	itemRepo := NewMySQLOrderItemRepository(db)
	customerID := testutil.InsertCustomer(t, db, "John", "Doe", "john@example.com")
	productID := testutil.InsertProduct(t, db, "Widget", "10.00", 5)
	order := insertOrder(t, db, orderRepo, customerID, "ORD-Z")

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = itemRepo.Insert(context.Background(), tx, domain.OrderItem{
		OrderID: order.ID, ProductID: productID, Quantity: 0,
		UnitPrice: decimal.NewFromInt(10), Subtotal: decimal.Zero,
	})
	assert.Error(t, err)
}
