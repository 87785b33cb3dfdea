package repositories

import (
	"context"
	"errors"

	"solarshop/internal/models"
)

var (
	// ErrNotFound is returned when no product matches the lookup.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicate is returned when a write violates the unique name index.
	ErrDuplicate = errors.New("product name already exists")
	// ErrUnavailable is returned when the store cannot be reached in time.
	ErrUnavailable = errors.New("product store unavailable")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Find returns one page of products matching the filter together with
	// the number of matches ignoring pagination.
	Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// FindByName looks up a product by exact name, ignoring excludeID when it
	// is not empty.
	FindByName(ctx context.Context, name, excludeID string) (*models.Product, error)
	// Create persists product and assigns its ID.
	Create(ctx context.Context, product *models.Product) error
	// Update writes only the supplied fields of changes.
	Update(ctx context.Context, id string, changes models.ProductChanges) error
	// Delete removes the product and returns the number of removed records.
	Delete(ctx context.Context, id string) (int64, error)
	Stats(ctx context.Context) (*models.ProductStats, error)
	Count(ctx context.Context) (int64, error)
}
