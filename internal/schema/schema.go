// Package schema holds the field rules for a product and turns loosely typed
// input into the canonical values that are persisted.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"solarshop/internal/models"
)

var pricePattern = regexp.MustCompile(`^₦[\d,]+$`)

// ValidationResult lists every rule the input broke.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Schema validates and sanitizes product input.
type Schema struct {
	validate *validator.Validate
	now      func() time.Time
}

// New creates a Schema that stamps timestamps with the wall clock.
func New() *Schema {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Schema using now for timestamps.
func NewWithClock(now func() time.Time) *Schema {
	v := validator.New()
	_ = v.RegisterValidation("naira", func(fl validator.FieldLevel) bool {
		return pricePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return IsCategory(fl.Field().String())
	})
	return &Schema{validate: v, now: now}
}

// IsCategory reports whether name may be assigned by a client. An empty name
// means "not supplied".
func IsCategory(name string) bool {
	if name == "" {
		return true
	}
	for _, c := range models.Categories {
		if c == name {
			return true
		}
	}
	return false
}

var ruleMessages = map[string]string{
	"Name":        "Name must be less than 200 characters",
	"Price":       `Price must be in format "₦X,XXX" with naira symbol`,
	"Category":    "Category must be one of: " + strings.Join(models.Categories, ", "),
	"Wattage":     "Wattage must be a number between 1 and 5000",
	"Description": "Description must be a string with maximum 1000 characters",
	"Rating":      "Rating must be a number between 0 and 5",
	"Reviews":     "Reviews count must be a non-negative number",
}

var typeMessages = map[string]string{
	"Name":                 "Name is required and must be a non-empty string",
	"Price":                "Price is required and must be a string",
	"Image":                "Image URL is required",
	"Alt":                  "Alt text is required for accessibility",
	"Category":             "Category must be one of: " + strings.Join(models.Categories, ", "),
	"Description":          "Description must be a string with maximum 1000 characters",
	"Features":             "Features must be an array",
	models.MistypedFeature: "Each feature must be a string with maximum 100 characters",
	"InStock":              "inStock must be a boolean",
	models.MistypedProduct: "Product data must be a JSON object",
}

var fieldOrder = []string{"Product", "Name", "Price", "Image", "Alt", "Category", "Wattage", "Description", "Features", "InStock", "Rating", "Reviews"}

// Validate checks in against the product rules. On create the name, price,
// image and alt are required; on update only supplied fields are checked.
// Every violation is collected.
func (s *Schema) Validate(in *models.ProductInput, isUpdate bool) ValidationResult {
	found := make(map[string]string)
	for _, field := range in.Mistyped() {
		if field == models.MistypedFeature {
			found["Features"] = typeMessages[field]
			continue
		}
		found[field] = typeMessages[field]
	}
	if _, ok := found[models.MistypedProduct]; ok {
		return ValidationResult{Errors: []string{typeMessages[models.MistypedProduct]}}
	}

	required := func(field string, value *string, message string) {
		if _, ok := found[field]; ok {
			return
		}
		if value == nil {
			if !isUpdate {
				found[field] = message
			}
			return
		}
		if strings.TrimSpace(*value) == "" {
			found[field] = message
		}
	}
	required("Name", in.Name, "Name is required and must be a non-empty string")
	required("Price", in.Price, "Price is required and must be a string")
	required("Image", in.Image, "Image URL is required")
	required("Alt", in.Alt, "Alt text is required for accessibility")

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return ValidationResult{Errors: []string{err.Error()}}
		}
		for _, fe := range fieldErrs {
			field := fe.StructField()
			if strings.HasPrefix(field, "Features") {
				if _, ok := found["Features"]; ok {
					continue
				}
				if field == "Features" {
					found["Features"] = "Maximum 10 features allowed"
				} else {
					found["Features"] = "Each feature must be a string with maximum 100 characters"
				}
				continue
			}
			if _, ok := found[field]; ok {
				continue
			}
			if msg, ok := ruleMessages[field]; ok {
				found[field] = msg
			} else {
				found[field] = fmt.Sprintf("Field '%s' failed on the '%s' tag", field, fe.Tag())
			}
		}
	}

	errs := make([]string, 0, len(found))
	for _, field := range fieldOrder {
		if msg, ok := found[field]; ok {
			errs = append(errs, msg)
		}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// Sanitize trims strings, converts numbers and drops empty features. It always
// stamps UpdatedAt and stamps CreatedAt only when isUpdate is false.
func (s *Schema) Sanitize(in *models.ProductInput, isUpdate bool) models.ProductChanges {
	var c models.ProductChanges

	trimmed := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	c.Name = trimmed(in.Name)
	c.Price = trimmed(in.Price)
	c.Image = trimmed(in.Image)
	c.Alt = trimmed(in.Alt)
	c.Category = trimmed(in.Category)
	c.Description = trimmed(in.Description)

	if c.Price != nil {
		if amount, err := models.ParseNaira(*c.Price); err == nil {
			n := amount.IntPart()
			c.PriceAmount = &n
		}
	}
	if in.Wattage != nil {
		w := float64(*in.Wattage)
		c.Wattage = &w
	}
	if in.Features != nil {
		features := make([]string, 0, len(in.Features))
		for _, f := range in.Features {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
		c.Features = &features
	}
	if in.InStock != nil {
		v := *in.InStock
		c.InStock = &v
	}
	if in.Rating != nil {
		r := float64(*in.Rating)
		c.Rating = &r
	}
	if in.Reviews != nil {
		n := int(*in.Reviews)
		c.Reviews = &n
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	if !isUpdate {
		c.CreatedAt = &now
	}
	c.UpdatedAt = now
	return c
}
