package catalog_test

import (
	"context"
	"testing"

	"solarshop/internal/catalog"
	"solarshop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputs(t *testing.T) {
	inputs, err := catalog.Inputs()
	require.NoError(t, err)
	require.Len(t, inputs, 25)
	assert.Equal(t, "Fex Solar Light 200watts", *inputs[0].Name)
	assert.Equal(t, "₦35,000", *inputs[0].Price)
}

func TestProducts(t *testing.T) {
	products, err := catalog.Products()
	require.NoError(t, err)
	require.Len(t, products, 25)

	seen := map[string]bool{}
	for _, p := range products {
		assert.NotEmpty(t, p.Name)
		assert.True(t, p.InStock)
		assert.Equal(t, 4.5, p.Rating)
		assert.Positive(t, p.PriceAmount)
		assert.False(t, seen[p.Name], "duplicate name %s", p.Name)
		seen[p.Name] = true
	}
	assert.Equal(t, "static-1", products[0].ID)
	assert.True(t, products[0].CreatedAt.After(products[1].CreatedAt))
}

func TestStaticFind(t *testing.T) {
	static, err := catalog.NewStatic()
	require.NoError(t, err)

	page, total, err := static.Find(context.Background(), models.ProductFilter{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, page, 3)
	assert.Equal(t, "Fex Solar Light 200watts", page[0].Name)

	fex, fexTotal, err := static.Find(context.Background(), models.ProductFilter{Category: "Fex Solar"})
	require.NoError(t, err)
	assert.Equal(t, int64(len(fex)), fexTotal)
	for _, p := range fex {
		assert.Equal(t, "Fex Solar", p.Category)
	}

	// A cancelled caller still gets the fallback list.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, total, err = static.Find(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
}
