package models

import "time"

// Order statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderItemRequest is one line of an order enquiry as submitted by a customer.
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0,lte=1000"`
}

// OrderRequest is the storefront order form.
type OrderRequest struct {
	CustomerName string             `json:"customerName" validate:"required,min=2,max=100"`
	Phone        string             `json:"phone" validate:"required,min=7,max=20"`
	Address      string             `json:"address" validate:"omitempty,max=300"`
	Note         string             `json:"note" validate:"omitempty,max=500"`
	Items        []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// OrderItem represents a single priced item within an order.
type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"` // Price at the time of order
	LineTotal string `json:"lineTotal"`
}

// Order represents a customer order enquiry.
type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customerName"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address,omitempty"`
	Note         string      `json:"note,omitempty"`
	Items        []OrderItem `json:"items"`
	Total        string      `json:"total"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
