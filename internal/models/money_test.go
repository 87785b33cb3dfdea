package models_test

import (
	"testing"

	"solarshop/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNaira(t *testing.T) {
	d, err := models.ParseNaira("₦25,000")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(25000)))

	d, err = models.ParseNaira(" ₦1,250,000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1250000), d.IntPart())

	_, err = models.ParseNaira("25000")
	assert.Error(t, err)

	_, err = models.ParseNaira("₦twenty")
	assert.Error(t, err)
}

func TestFormatNaira(t *testing.T) {
	cases := map[int64]string{
		0:       "₦0",
		999:     "₦999",
		1000:    "₦1,000",
		25000:   "₦25,000",
		1250000: "₦1,250,000",
	}
	for amount, want := range cases {
		assert.Equal(t, want, models.FormatNaira(decimal.NewFromInt(amount)))
	}
}

func TestProductFilterNormalize(t *testing.T) {
	f := models.ProductFilter{SortBy: "popularity", Limit: 5000, Skip: -3}.Normalize()
	assert.Equal(t, models.SortByNewest, f.SortBy)
	assert.Equal(t, models.MaxLimit, f.Limit)
	assert.Equal(t, 0, f.Skip)

	f = models.ProductFilter{}.Normalize()
	assert.Equal(t, models.DefaultLimit, f.Limit)
}
