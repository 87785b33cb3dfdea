package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/spf13/cast"
)

// DefaultCategory is assigned when a product is created without a category.
const DefaultCategory = "General"

// Categories lists the category names a client may assign to a product.
var Categories = []string{"Fex Solar", "KTJ", "De Cecon", "EcoBoost", "Street Lights", "Industrial", "Smart Lights"}

// Product represents a solar light in the catalog.
type Product struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" bson:"name" gorm:"uniqueIndex;type:varchar(200);not null"`
	Price       string    `json:"price" bson:"price" gorm:"type:varchar(32);not null"`
	PriceAmount int64     `json:"-" bson:"priceAmount" gorm:"index"` // numeric value of Price, used for sorting
	Image       string    `json:"image" bson:"image" gorm:"type:text;not null"`
	Alt         string    `json:"alt" bson:"alt" gorm:"type:varchar(255);not null"`
	Category    string    `json:"category" bson:"category" gorm:"type:varchar(64);index"`
	Wattage     *float64  `json:"wattage,omitempty" bson:"wattage,omitempty" gorm:"index"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" gorm:"type:text"`
	Features    []string  `json:"features,omitempty" bson:"features,omitempty" gorm:"serializer:json;type:text"`
	InStock     bool      `json:"inStock" bson:"inStock" gorm:"index"`
	Rating      float64   `json:"rating" bson:"rating"`
	Reviews     int       `json:"reviews" bson:"reviews"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt" gorm:"index;autoCreateTime:false"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt" gorm:"autoUpdateTime:false"`
}

// Number accepts a JSON number or a numeric string. Values that cannot be
// read as a number decode to NaN so that validation reports them against the
// field instead of rejecting the whole body.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if _, isBool := raw.(bool); isBool {
		*n = Number(math.NaN())
		return nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		*n = Number(math.NaN())
		return nil
	}
	*n = Number(f)
	return nil
}

// ProductInput is the loosely typed payload accepted on create and update.
// A nil field was not supplied by the client.
type ProductInput struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Price       *string  `json:"price,omitempty" validate:"omitempty,naira"`
	Image       *string  `json:"image,omitempty"`
	Alt         *string  `json:"alt,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,category"`
	Wattage     *Number  `json:"wattage,omitempty" validate:"omitempty,gte=1,lte=5000"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Features    []string `json:"features,omitempty" validate:"omitempty,max=10,dive,max=100"`
	InStock     *bool    `json:"inStock,omitempty"`
	Rating      *Number  `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Reviews     *Number  `json:"reviews,omitempty" validate:"omitempty,gte=0"`

	mistyped []string
}

// Field names reported by Mistyped besides the struct field names.
const (
	MistypedProduct = "Product"
	MistypedFeature = "FeatureItem"
)

// UnmarshalJSON decodes the payload one field at a time. A value of the wrong
// JSON type leaves the field nil and is listed by Mistyped, so a single bad
// field never rejects the whole body.
func (in *ProductInput) UnmarshalJSON(b []byte) error {
	*in = ProductInput{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
		in.mistyped = append(in.mistyped, MistypedProduct)
		return nil
	}

	text := func(key, field string) *string {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			return nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			in.mistyped = append(in.mistyped, field)
			return nil
		}
		return &s
	}
	number := func(key string) *Number {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			return nil
		}
		var n Number
		if err := json.Unmarshal(raw, &n); err != nil {
			n = Number(math.NaN())
		}
		return &n
	}

	in.Name = text("name", "Name")
	in.Price = text("price", "Price")
	in.Image = text("image", "Image")
	in.Alt = text("alt", "Alt")
	in.Category = text("category", "Category")
	in.Description = text("description", "Description")
	in.Wattage = number("wattage")
	in.Rating = number("rating")
	in.Reviews = number("reviews")

	if raw, ok := fields["inStock"]; ok && !isNull(raw) {
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			in.mistyped = append(in.mistyped, "InStock")
		} else {
			in.InStock = &v
		}
	}

	if raw, ok := fields["features"]; ok && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			in.mistyped = append(in.mistyped, "Features")
			return nil
		}
		in.Features = make([]string, 0, len(items))
		for _, item := range items {
			var f string
			if err := json.Unmarshal(item, &f); err != nil {
				in.mistyped = append(in.mistyped, MistypedFeature)
				continue
			}
			in.Features = append(in.Features, f)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// Mistyped lists the fields whose JSON value had the wrong type.
func (in ProductInput) Mistyped() []string {
	return in.mistyped
}

// IsEmpty reports whether no field was supplied.
func (in ProductInput) IsEmpty() bool {
	return in.Name == nil && in.Price == nil && in.Image == nil && in.Alt == nil &&
		in.Category == nil && in.Wattage == nil && in.Description == nil &&
		in.Features == nil && in.InStock == nil && in.Rating == nil && in.Reviews == nil &&
		len(in.mistyped) == 0
}

// ProductChanges is a sanitized set of field values. Only non-nil fields are
// written; UpdatedAt is always written and CreatedAt only on creation.
type ProductChanges struct {
	Name        *string
	Price       *string
	PriceAmount *int64
	Image       *string
	Alt         *string
	Category    *string
	Wattage     *float64
	Description *string
	Features    *[]string
	InStock     *bool
	Rating      *float64
	Reviews     *int
	CreatedAt   *time.Time
	UpdatedAt   time.Time
}

// Fields returns the Product field names touched by the changes.
func (c ProductChanges) Fields() []string {
	fields := make([]string, 0, 14)
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(c.Name != nil, "Name")
	add(c.Price != nil, "Price")
	add(c.PriceAmount != nil, "PriceAmount")
	add(c.Image != nil, "Image")
	add(c.Alt != nil, "Alt")
	add(c.Category != nil, "Category")
	add(c.Wattage != nil, "Wattage")
	add(c.Description != nil, "Description")
	add(c.Features != nil, "Features")
	add(c.InStock != nil, "InStock")
	add(c.Rating != nil, "Rating")
	add(c.Reviews != nil, "Reviews")
	add(c.CreatedAt != nil, "CreatedAt")
	fields = append(fields, "UpdatedAt")
	return fields
}

// Clone returns a copy of p that shares no memory with it.
func (p Product) Clone() Product {
	if p.Wattage != nil {
		w := *p.Wattage
		p.Wattage = &w
	}
	if p.Features != nil {
		p.Features = append(make([]string, 0, len(p.Features)), p.Features...)
	}
	return p
}

// Apply merges the changes into p. Fields left nil keep their value.
func (p *Product) Apply(c ProductChanges) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.PriceAmount != nil {
		p.PriceAmount = *c.PriceAmount
	}
	if c.Image != nil {
		p.Image = *c.Image
	}
	if c.Alt != nil {
		p.Alt = *c.Alt
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.Wattage != nil {
		w := *c.Wattage
		p.Wattage = &w
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Features != nil {
		p.Features = append([]string(nil), (*c.Features)...)
	}
	if c.InStock != nil {
		p.InStock = *c.InStock
	}
	if c.Rating != nil {
		p.Rating = *c.Rating
	}
	if c.Reviews != nil {
		p.Reviews = *c.Reviews
	}
	if c.CreatedAt != nil {
		p.CreatedAt = *c.CreatedAt
	}
	p.UpdatedAt = c.UpdatedAt
}

// NewProduct builds a product from sanitized creation data, filling the
// defaults for optional fields that were not supplied.
func NewProduct(c ProductChanges) Product {
	p := Product{
		Category: DefaultCategory,
		InStock:  true,
		Rating:   4.5,
	}
	p.Apply(c)
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	return p
}

// Sort keys accepted by ProductFilter.SortBy.
const (
	SortByName    = "name"
	SortByPrice   = "price"
	SortByWattage = "wattage"
	SortByNewest  = "newest"
	SortByRating  = "rating"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// MaxBulkProducts caps the size of one bulk create request.
const MaxBulkProducts = 100

// ProductFilter selects, orders and pages a product listing.
type ProductFilter struct {
	Category   string
	InStock    *bool
	MinWattage *float64
	MaxWattage *float64
	SortBy     string
	Limit      int
	Skip       int
}

// Normalize applies the listing defaults: newest first, 100 items, no offset.
func (f ProductFilter) Normalize() ProductFilter {
	switch f.SortBy {
	case SortByName, SortByPrice, SortByWattage, SortByNewest, SortByRating:
	default:
		f.SortBy = SortByNewest
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return f
}

// Matches reports whether p passes the selection part of the filter.
func (f ProductFilter) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.InStock != nil && p.InStock != *f.InStock {
		return false
	}
	if f.MinWattage != nil && (p.Wattage == nil || *p.Wattage < *f.MinWattage) {
		return false
	}
	if f.MaxWattage != nil && (p.Wattage == nil || *p.Wattage > *f.MaxWattage) {
		return false
	}
	return true
}

// ProductStats summarises the whole catalog.
type ProductStats struct {
	TotalProducts     int64            `json:"totalProducts"`
	AverageRating     float64          `json:"averageRating"`
	TotalInStock      int64            `json:"totalInStock"`
	CategoryBreakdown map[string]int64 `json:"categoryBreakdown"`
}
