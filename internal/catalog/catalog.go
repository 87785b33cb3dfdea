// Package catalog embeds the launch product list. It seeds empty stores and
// backs the storefront when the API cannot be reached.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"solarshop/internal/models"
	"solarshop/internal/repositories"
	"solarshop/internal/schema"
)

//go:embed products.json
var productsJSON []byte

// Inputs returns the catalog as create payloads, in file order.
func Inputs() ([]models.ProductInput, error) {
	var inputs []models.ProductInput
	if err := json.Unmarshal(productsJSON, &inputs); err != nil {
		return nil, fmt.Errorf("failed to decode embedded catalog: %w", err)
	}
	return inputs, nil
}

// Products returns the catalog as products with defaults applied and stable
// "static-N" IDs. Timestamps are fixed so the list orders the same way on
// every call.
func Products() ([]models.Product, error) {
	inputs, err := Inputs()
	if err != nil {
		return nil, err
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	products := make([]models.Product, 0, len(inputs))
	for i := range inputs {
		// Earlier entries are newer so the default newest-first order keeps
		// the file order.
		stamp := base.Add(time.Duration(len(inputs)-i) * time.Minute)
		sch := schema.NewWithClock(func() time.Time { return stamp })
		if res := sch.Validate(&inputs[i], false); !res.IsValid {
			return nil, fmt.Errorf("embedded product %d is invalid: %v", i, res.Errors)
		}
		p := models.NewProduct(sch.Sanitize(&inputs[i], false))
		p.ID = fmt.Sprintf("static-%d", i+1)
		products = append(products, p)
	}
	return products, nil
}

// Static serves the embedded catalog with the same filtering, ordering and
// paging as a live store.
type Static struct {
	repo *repositories.MemoryProductRepository
}

// NewStatic loads the embedded catalog.
func NewStatic() (*Static, error) {
	products, err := Products()
	if err != nil {
		return nil, err
	}
	repo := repositories.NewMemoryProductRepository()
	for i := range products {
		if err := repo.Create(context.Background(), &products[i]); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", products[i].Name, err)
		}
	}
	return &Static{repo: repo}, nil
}

// Find returns one page of the embedded catalog.
func (s *Static) Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	return s.repo.Find(context.WithoutCancel(ctx), filter)
}
