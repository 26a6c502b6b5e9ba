package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// ParseOrderStatus accepts only the exact status names. Any status may be set
// from any other; there are no automatic transitions.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

type Order struct {
	ID           int
	CustomerID   int
	CustomerName string
	OrderNumber  string
	OrderDate    time.Time
	TotalAmount  decimal.Decimal
	Status       OrderStatus
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	Items        []OrderItem
}

// MaxAmount is the largest value a DECIMAL(18,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999999999.99")

// ExceedsMaxAmount reports a total or line subtotal that cannot be stored.
func (o Order) ExceedsMaxAmount() bool {
	for _, item := range o.Items {
		if item.Subtotal.GreaterThan(MaxAmount) {
			return true
		}
	}
	return o.TotalAmount.GreaterThan(MaxAmount)
}

// ComputeTotal sums the stored line subtotals.
func (o Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

type OrderItem struct {
	ID          int
	OrderID     int
	ProductID   int
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// NewOrderItem snapshots the product price at order time.
func NewOrderItem(product Product, quantity int) OrderItem {
	return OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
