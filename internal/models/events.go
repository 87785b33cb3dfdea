package models

import "time"

// Routing keys for catalog and order events.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventOrderCreated   = "order.created"
	EventOrderStatus    = "order.status_changed"
)

// ProductEvent is published after a catalog mutation.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"productId"`
	Name       string    `json:"name,omitempty"`
	Price      string    `json:"price,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// OrderEvent is published when an order is placed or changes status.
type OrderEvent struct {
	Type       string    `json:"type"`
	Order      Order     `json:"order"`
	OccurredAt time.Time `json:"occurredAt"`
}
