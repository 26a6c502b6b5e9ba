package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"minierp/internal/domain"
)

type CreateOrderRequest struct {
	CustomerID int                      `json:"customerId"`
	OrderItems []CreateOrderItemRequest `json:"orderItems"`
}

type CreateOrderItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// OrderLine is one requested (product, quantity) pair, kept in request order.
type OrderLine struct {
	ProductID int
	Quantity  int
}

func (r CreateOrderRequest) Lines() []OrderLine {
	lines := make([]OrderLine, len(r.OrderItems))
	for i, item := range r.OrderItems {
		lines[i] = OrderLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderResponse struct {
	OrderID      int                 `json:"orderId"`
	CustomerID   int                 `json:"customerId"`
	CustomerName string              `json:"customerName"`
	OrderNumber  string              `json:"orderNumber"`
	OrderDate    time.Time           `json:"orderDate"`
	TotalAmount  decimal.Decimal     `json:"totalAmount"`
	Status       string              `json:"status"`
	OrderItems   []OrderItemResponse `json:"orderItems"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    *time.Time          `json:"updatedAt"`
}

type OrderItemResponse struct {
	OrderItemID int             `json:"orderItemId"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

func NewOrderResponse(o domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			OrderItemID: item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		}
	}

	return OrderResponse{
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		OrderNumber:  o.OrderNumber,
		OrderDate:    o.OrderDate,
		TotalAmount:  o.TotalAmount,
		Status:       string(o.Status),
		OrderItems:   items,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func NewOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = NewOrderResponse(o)
	}
	return out
}
