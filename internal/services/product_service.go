package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"solarshop/internal/apperrors"
	"solarshop/internal/models"
	"solarshop/internal/repositories"
	"solarshop/internal/schema"
)

// EventPublisher sends a serialized event under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductList is one page of a product listing.
type ProductList struct {
	Data  []models.Product `json:"data"`
	Count int              `json:"count"`
	Total int64            `json:"total"`
}

// DeleteResult reports a completed deletion.
type DeleteResult struct {
	DeletedID    string `json:"deletedId"`
	DeletedCount int64  `json:"deletedCount"`
}

// BulkError describes one rejected entry of a bulk create.
type BulkError struct {
	Index   int                  `json:"index"`
	Error   string               `json:"error"`
	Details []string             `json:"details,omitempty"`
	Product *models.ProductInput `json:"product,omitempty"`
}

// BulkResult aggregates the outcome of a bulk create in input order.
type BulkResult struct {
	Data           []models.Product `json:"data"`
	Errors         []BulkError      `json:"errors"`
	TotalProcessed int              `json:"totalProcessed"`
	SuccessCount   int              `json:"successCount"`
	ErrorCount     int              `json:"errorCount"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	schema *schema.Schema
	events EventPublisher
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(repo repositories.ProductRepository, sch *schema.Schema, events EventPublisher) *ProductService {
	if sch == nil {
		sch = schema.New()
	}
	return &ProductService{
		repo:   repo,
		schema: sch,
		events: events,
	}
}

// GetAllProducts retrieves one page of products matching filter.
func (s *ProductService) GetAllProducts(ctx context.Context, filter models.ProductFilter) (*ProductList, error) {
	products, total, err := s.repo.Find(ctx, filter.Normalize())
	if err != nil {
		return nil, storeError("Failed to fetch products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return &ProductList{Data: products, Count: len(products), Total: total}, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("Failed to fetch product", err)
	}
	return product, nil
}

// CreateProduct validates, sanitizes and stores a new product, then returns
// the record as read back from the store.
func (s *ProductService) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	if in == nil {
		in = &models.ProductInput{}
	}
	if res := s.schema.Validate(in, false); !res.IsValid {
		return nil, apperrors.Validation(res.Errors)
	}
	changes := s.schema.Sanitize(in, false)

	if err := s.ensureUniqueName(ctx, *changes.Name, ""); err != nil {
		return nil, err
	}

	product := models.NewProduct(changes)
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, storeError("Failed to create product", err)
	}

	created, err := s.repo.GetByID(ctx, product.ID)
	if err != nil {
		return nil, storeError("Failed to read created product", err)
	}

	log.Printf("Product created: %s (%s)", created.Name, created.ID)
	s.publish(models.EventProductCreated, created)
	return created, nil
}

// UpdateProduct merges the supplied fields into an existing product. A
// missing product is reported before the payload is looked at.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in *models.ProductInput) (*models.Product, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, storeError("Failed to fetch product", err)
	}

	if in == nil {
		in = &models.ProductInput{}
	}
	if res := s.schema.Validate(in, true); !res.IsValid {
		return nil, apperrors.Validation(res.Errors)
	}
	changes := s.schema.Sanitize(in, true)

	if changes.Name != nil {
		if err := s.ensureUniqueName(ctx, *changes.Name, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, storeError("Failed to update product", err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("Failed to read updated product", err)
	}

	log.Printf("Product updated: %s (%s)", updated.Name, updated.ID)
	s.publish(models.EventProductUpdated, updated)
	return updated, nil
}

// DeleteProduct removes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*DeleteResult, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("Failed to fetch product", err)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storeError("Failed to delete product", err)
	}
	if deleted == 0 {
		// Removed by a concurrent request between the lookup and the delete.
		return nil, apperrors.NotFound("Product not found")
	}

	log.Printf("Product deleted: %s (%s)", existing.Name, existing.ID)
	s.publish(models.EventProductDeleted, existing)
	return &DeleteResult{DeletedID: id, DeletedCount: deleted}, nil
}

// BulkCreateProducts creates every entry in order. A rejected entry is
// recorded against its index and does not stop the remaining entries.
func (s *ProductService) BulkCreateProducts(ctx context.Context, inputs []models.ProductInput) *BulkResult {
	result := &BulkResult{
		Data:   []models.Product{},
		Errors: []BulkError{},
	}

	for i := range inputs {
		in := inputs[i]
		product, err := s.CreateProduct(ctx, &in)
		result.TotalProcessed++
		if err != nil {
			appErr := apperrors.As(err)
			result.Errors = append(result.Errors, BulkError{
				Index:   i,
				Error:   appErr.Message,
				Details: appErr.Details,
				Product: &in,
			})
			continue
		}
		result.Data = append(result.Data, *product)
	}

	result.SuccessCount = len(result.Data)
	result.ErrorCount = len(result.Errors)
	log.Printf("Bulk create finished: %d created, %d failed", result.SuccessCount, result.ErrorCount)
	return result
}

// GetProductStats aggregates the whole catalog.
func (s *ProductService) GetProductStats(ctx context.Context) (*models.ProductStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, storeError("Failed to fetch product statistics", err)
	}
	if stats.CategoryBreakdown == nil {
		stats.CategoryBreakdown = map[string]int64{}
	}
	return stats, nil
}

// CountProducts returns the catalog size.
func (s *ProductService) CountProducts(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, storeError("Failed to count products", err)
	}
	return n, nil
}

func (s *ProductService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	_, err := s.repo.FindByName(ctx, name, excludeID)
	switch {
	case err == nil:
		return apperrors.Conflict("Product with this name already exists")
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return storeError("Failed to check product name", err)
	}
}

func (s *ProductService) publish(eventType string, p *models.Product) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(models.ProductEvent{
		Type:       eventType,
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}
	if err := s.events.Publish(eventType, body); err != nil {
		log.Printf("Failed to publish %s event for %s: %v", eventType, p.ID, err)
	}
}

// storeError classifies a repository error.
func storeError(message string, err error) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NotFound("Product not found")
	case errors.Is(err, repositories.ErrDuplicate):
		return apperrors.Conflict("Product with this name already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Transport("Database request timed out", err)
	case errors.Is(err, repositories.ErrUnavailable),
		errors.Is(err, context.Canceled):
		return apperrors.Transport("Database unavailable", err)
	default:
		return apperrors.Store(message, err)
	}
}
