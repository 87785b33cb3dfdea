package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"solarshop/internal/catalog"
	"solarshop/internal/client"
	"solarshop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyAPI proxies to the real API until broken is set.
func flakyAPI(t *testing.T) (*httptest.Server, *atomic.Bool) {
	t.Helper()
	api := newAPI(t, "")
	var broken atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Failed to fetch products"}`))
			return
		}
		req, err := http.NewRequestWithContext(r.Context(), r.Method, api.URL+r.URL.RequestURI(), r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		req.Header = r.Header.Clone()
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		for k, v := range resp.Header {
			w.Header()[k] = v
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	}))
	t.Cleanup(server.Close)
	return server, &broken
}

func TestStorefront_StaticFallback(t *testing.T) {
	server, broken := flakyAPI(t)
	broken.Store(true)

	static, err := catalog.NewStatic()
	require.NoError(t, err)
	c := client.New(client.Config{BaseURL: server.URL + "/api", Timeout: time.Second, RetryWaitTime: time.Millisecond})
	shop := client.NewStorefront(c, static)

	listing, err := shop.Products(context.Background(), models.ProductFilter{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, client.SourceFallback, listing.Source)
	assert.Equal(t, int64(25), listing.Total)
	assert.Len(t, listing.Products, 5)
	assert.ErrorIs(t, listing.Err, client.ErrUnavailable)

	// Writes never fall back.
	_, err = c.CreateProduct(context.Background(), testLight("Offline Light"))
	assert.ErrorIs(t, err, client.ErrUnavailable)
}

func TestStorefront_LastKnownGood(t *testing.T) {
	server, broken := flakyAPI(t)
	ctx := context.Background()
	c := client.New(client.Config{BaseURL: server.URL + "/api", Timeout: time.Second, RetryWaitTime: time.Millisecond})

	_, err := c.CreateProduct(ctx, testLight("Live Light"))
	require.NoError(t, err)

	static, err := catalog.NewStatic()
	require.NoError(t, err)
	shop := client.NewStorefront(c, client.NewLastKnownGood(static))

	live, err := shop.Products(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, client.SourceDatabase, live.Source)
	require.Len(t, live.Products, 1)

	broken.Store(true)

	cached, err := shop.Products(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, client.SourceCache, cached.Source)
	assert.Equal(t, live.Products, cached.Products)

	// A filter never seen before goes to the static catalog.
	other, err := shop.Products(ctx, models.ProductFilter{Category: "KTJ"})
	require.NoError(t, err)
	assert.Equal(t, client.SourceFallback, other.Source)
	for _, p := range other.Products {
		assert.Equal(t, "KTJ", p.Category)
	}
}

func TestStorefront_NoFallback(t *testing.T) {
	server, broken := flakyAPI(t)
	broken.Store(true)

	c := client.New(client.Config{BaseURL: server.URL + "/api", Timeout: time.Second, RetryWaitTime: time.Millisecond})
	shop := client.NewStorefront(c, nil)

	_, err := shop.Products(context.Background(), models.ProductFilter{})
	assert.ErrorIs(t, err, client.ErrUnavailable)

	empty := client.NewStorefront(c, client.NewLastKnownGood(nil))
	_, err = empty.Products(context.Background(), models.ProductFilter{})
	assert.ErrorIs(t, err, client.ErrUnavailable)
}
