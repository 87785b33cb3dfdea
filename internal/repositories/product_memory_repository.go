package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"solarshop/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// Find returns the matching products in filter order.
func (r *MemoryProductRepository) Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	filter = filter.Normalize()

	r.mu.RLock()
	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Matches(p) {
			matched = append(matched, p.Clone())
		}
	}
	r.mu.RUnlock()

	sortProducts(matched, filter.SortBy)

	total := int64(len(matched))
	if filter.Skip >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := filter.Skip + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Skip:end], total, nil
}

// sortProducts orders products the way the document store does for each
// sort key, breaking ties by ID so pages are stable.
func sortProducts(products []models.Product, sortBy string) {
	wattage := func(p models.Product) float64 {
		if p.Wattage == nil {
			return -1
		}
		return *p.Wattage
	}
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch sortBy {
		case models.SortByName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case models.SortByPrice:
			if a.PriceAmount != b.PriceAmount {
				return a.PriceAmount < b.PriceAmount
			}
		case models.SortByWattage:
			if wattage(a) != wattage(b) {
				return wattage(a) > wattage(b)
			}
		case models.SortByRating:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	product = product.Clone()
	return &product, nil
}

// FindByName returns the product called name, skipping excludeID.
func (r *MemoryProductRepository) FindByName(ctx context.Context, name, excludeID string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name && p.ID != excludeID {
			found := p.Clone()
			return &found, nil
		}
	}
	return nil, fmt.Errorf("product named %q: %w", name, ErrNotFound)
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Name == product.Name {
			return fmt.Errorf("create %q: %w", product.Name, ErrDuplicate)
		}
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	r.products[product.ID] = product.Clone()
	return nil
}

// Update merges changes into an existing product.
func (r *MemoryProductRepository) Update(ctx context.Context, id string, changes models.ProductChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
	}
	if changes.Name != nil {
		for _, p := range r.products {
			if p.ID != id && p.Name == *changes.Name {
				return fmt.Errorf("rename to %q: %w", *changes.Name, ErrDuplicate)
			}
		}
	}
	product.Apply(changes)
	r.products[id] = product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return 0, nil
	}
	delete(r.products, id)
	return 1, nil
}

// Stats aggregates the catalog.
func (r *MemoryProductRepository) Stats(ctx context.Context) (*models.ProductStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.ProductStats{CategoryBreakdown: make(map[string]int64)}
	var ratingSum float64
	for _, p := range r.products {
		stats.TotalProducts++
		ratingSum += p.Rating
		if p.InStock {
			stats.TotalInStock++
		}
		stats.CategoryBreakdown[p.Category]++
	}
	if stats.TotalProducts > 0 {
		stats.AverageRating = ratingSum / float64(stats.TotalProducts)
	}
	return stats, nil
}

// Count returns the number of stored products.
func (r *MemoryProductRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}
