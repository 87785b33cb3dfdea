package client

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sync"

	"solarshop/internal/models"
)

// Listing sources.
const (
	SourceDatabase = "database"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// FallbackSource serves product listings when the API cannot.
type FallbackSource interface {
	Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
}

// Listing is what the storefront shows.
type Listing struct {
	Products []models.Product
	Total    int64
	Source   string
	// Err is the API failure that caused a fallback listing.
	Err error
}

// Storefront is the read path of the shop UI. Listings degrade to the
// fallback source; product writes go through Client directly and are never
// substituted.
type Storefront struct {
	client   *Client
	fallback FallbackSource
}

// NewStorefront creates a Storefront. fallback may be nil.
func NewStorefront(client *Client, fallback FallbackSource) *Storefront {
	return &Storefront{client: client, fallback: fallback}
}

// Products lists products from the API, or from the fallback source when
// the API call fails. The API error is returned only when no fallback could
// serve the listing.
func (s *Storefront) Products(ctx context.Context, filter models.ProductFilter) (*Listing, error) {
	page, err := s.client.ListProducts(ctx, filter)
	if err == nil {
		if cache, ok := s.fallback.(*LastKnownGood); ok {
			cache.Remember(filter, page.Products, page.Total)
		}
		return &Listing{Products: page.Products, Total: page.Total, Source: SourceDatabase}, nil
	}
	if s.fallback == nil || errors.Is(err, ErrInvalidRequest) {
		return nil, err
	}

	log.Printf("Product listing failed, serving fallback data: %v", err)
	source := SourceFallback
	if cache, ok := s.fallback.(*LastKnownGood); ok && cache.Has(filter) {
		source = SourceCache
	}
	products, total, fbErr := s.fallback.Find(ctx, filter)
	if fbErr != nil {
		log.Printf("Fallback listing failed: %v", fbErr)
		return nil, err
	}
	return &Listing{Products: products, Total: total, Source: source, Err: err}, nil
}

// Product fetches one product. There is no fallback: a product page for an
// unknown or unreachable product reports the error.
func (s *Storefront) Product(ctx context.Context, id string) (*models.Product, error) {
	return s.client.GetProduct(ctx, id)
}

type snapshot struct {
	products []models.Product
	total    int64
}

// LastKnownGood replays the last successful listing for the same filter and
// otherwise defers to next.
type LastKnownGood struct {
	next FallbackSource

	mu   sync.RWMutex
	last map[string]snapshot
}

// NewLastKnownGood creates a LastKnownGood. next may be nil.
func NewLastKnownGood(next FallbackSource) *LastKnownGood {
	return &LastKnownGood{next: next, last: make(map[string]snapshot)}
}

// Remember stores a successful listing.
func (l *LastKnownGood) Remember(filter models.ProductFilter, products []models.Product, total int64) {
	copied := append([]models.Product(nil), products...)
	l.mu.Lock()
	l.last[filterKey(filter)] = snapshot{products: copied, total: total}
	l.mu.Unlock()
}

// Find returns the remembered listing for filter.
func (l *LastKnownGood) Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	l.mu.RLock()
	snap, ok := l.last[filterKey(filter)]
	l.mu.RUnlock()
	if ok {
		return append([]models.Product(nil), snap.products...), snap.total, nil
	}
	if l.next == nil {
		return nil, 0, errors.New("no listing remembered for this filter")
	}
	return l.next.Find(ctx, filter)
}

// Has reports whether a listing is remembered for filter.
func (l *LastKnownGood) Has(filter models.ProductFilter) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.last[filterKey(filter)]
	return ok
}

func filterKey(filter models.ProductFilter) string {
	values := url.Values{}
	for k, v := range filterQuery(filter.Normalize()) {
		values.Set(k, v)
	}
	return values.Encode()
}
