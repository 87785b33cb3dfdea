package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"solarshop/internal/apperrors"
	"solarshop/internal/models"
	"solarshop/internal/repositories"

	"github.com/shopspring/decimal"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		events:      events,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, apperrors.Store("Failed to fetch orders", err)
	}
	return orders, nil
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, orderError("Failed to fetch order", err)
	}
	return order, nil
}

// CreateOrder prices every item from the catalog and records the order.
// Unknown or out-of-stock products reject the whole order.
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	var problems []string
	items := make([]models.OrderItem, 0, len(req.Items))
	total := decimal.Zero

	for _, item := range req.Items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if errors.Is(err, repositories.ErrNotFound) {
			problems = append(problems, fmt.Sprintf("Product %s not found", item.ProductID))
			continue
		}
		if err != nil {
			return nil, storeError("Failed to price order", err)
		}
		if !product.InStock {
			problems = append(problems, fmt.Sprintf("%s is out of stock", product.Name))
			continue
		}

		unit, err := models.ParseNaira(product.Price)
		if err != nil {
			return nil, apperrors.Store(fmt.Sprintf("Product %s has an unreadable price", product.Name), err)
		}
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			LineTotal: models.FormatNaira(line),
		})
	}
	if len(problems) > 0 {
		return nil, apperrors.Validation(problems)
	}

	order := &models.Order{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Note:         strings.TrimSpace(req.Note),
		Items:        items,
		Total:        models.FormatNaira(total),
		Status:       models.OrderPending, // Initial status
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, apperrors.Store("Failed to create order", err)
	}

	log.Printf("Order %s placed by %s: %d item(s), total %s", order.ID, order.CustomerName, len(order.Items), order.Total)
	s.publish(models.EventOrderCreated, order)
	return order, nil
}

// UpdateOrderStatus moves an order to a new status.
func (s *OrderService) UpdateOrderStatus(id string, status string) (*models.Order, error) {
	validStatuses := map[string]bool{
		models.OrderPending:    true,
		models.OrderProcessing: true,
		models.OrderShipped:    true,
		models.OrderDelivered:  true,
		models.OrderCancelled:  true,
	}
	if !validStatuses[status] {
		return nil, apperrors.Validation([]string{fmt.Sprintf("Invalid order status: %s", status)})
	}

	order, err := s.orderRepo.UpdateStatus(id, status)
	if err != nil {
		return nil, orderError("Failed to update order status", err)
	}

	log.Printf("Order %s is now %s", order.ID, order.Status)
	s.publish(models.EventOrderStatus, order)
	return order, nil
}

func (s *OrderService) publish(eventType string, order *models.Order) {
	if s.events == nil {
		log.Printf("Event publishing disabled, skipping %s for order %s", eventType, order.ID)
		return
	}
	body, err := json.Marshal(models.OrderEvent{Type: eventType, Order: *order, OccurredAt: time.Now().UTC()})
	if err != nil {
		log.Printf("Failed to marshal order event: %v", err)
		return
	}
	if err := s.events.Publish(eventType, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", eventType, order.ID, err)
	}
}

// HandleOrderEvent decodes an order event from the notification queue and
// logs a summary for staff.
func HandleOrderEvent(body []byte) error {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode order event: %w", err)
	}
	if event.Order.ID == "" {
		return fmt.Errorf("order event %q has no order id", event.Type)
	}
	log.Print(FormatOrderNotification(event))
	return nil
}

// FormatOrderNotification renders an order event as a plain-text message.
func FormatOrderNotification(event models.OrderEvent) string {
	o := event.Order
	var b strings.Builder
	switch event.Type {
	case models.EventOrderCreated:
		fmt.Fprintf(&b, "New order %s\n", o.ID)
	default:
		fmt.Fprintf(&b, "Order %s is %s\n", o.ID, o.Status)
	}
	fmt.Fprintf(&b, "Customer: %s (%s)\n", o.CustomerName, o.Phone)
	if o.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", o.Address)
	}
	for _, item := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ %s = %s\n", item.Name, item.Quantity, item.UnitPrice, item.LineTotal)
	}
	fmt.Fprintf(&b, "Total: %s", o.Total)
	if o.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", o.Note)
	}
	return b.String()
}

func orderError(message string, err error) error {
	if errors.Is(err, repositories.ErrOrderNotFound) {
		return apperrors.NotFound("Order not found")
	}
	return apperrors.Store(message, err)
}
