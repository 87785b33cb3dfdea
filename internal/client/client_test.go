package client_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"solarshop/internal/catalog"
	"solarshop/internal/client"
	"solarshop/internal/handlers"
	"solarshop/internal/models"
	"solarshop/internal/repositories"
	"solarshop/internal/services"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func str(s string) *string { return &s }

// newAPI serves the real router over HTTP backed by a memory store.
func newAPI(t *testing.T, adminPassword string) *httptest.Server {
	t.Helper()
	productService := services.NewProductService(repositories.NewMemoryProductRepository(), nil, nil)
	username := ""
	if adminPassword != "" {
		username = "admin"
	}
	authService, err := services.NewAuthService(username, adminPassword, "client_test_secret", time.Hour)
	require.NoError(t, err)

	app := handlers.NewRouter(handlers.RouterConfig{
		Products:       productService,
		Auth:           authService,
		RequestTimeout: 5 * time.Second,
	})
	server := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(server.Close)
	return server
}

func newClient(baseURL string) *client.Client {
	return client.New(client.Config{
		BaseURL:       baseURL + "/api",
		Timeout:       5 * time.Second,
		Retries:       2,
		RetryWaitTime: time.Millisecond,
	})
}

func testLight(name string) models.ProductInput {
	return models.ProductInput{
		Name:  str(name),
		Price: str("₦10,000"),
		Image: str("http://x/y.jpg"),
		Alt:   str("test"),
	}
}

func TestClient_ProductLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newClient(newAPI(t, "").URL)

	created, err := c.CreateProduct(ctx, testLight("Test Light"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "₦10,000", created.Price)

	fetched, err := c.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, fetched.Name)

	updated, err := c.UpdateProduct(ctx, created.ID, models.ProductInput{Price: str("₦12,000")})
	require.NoError(t, err)
	assert.Equal(t, "Test Light", updated.Name)
	assert.Equal(t, "₦12,000", updated.Price)

	page, err := c.ListProducts(ctx, models.ProductFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Products, 1)

	deleted, err := c.DeleteProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.DeletedID)
	assert.Equal(t, int64(1), deleted.DeletedCount)

	_, err = c.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Product not found", apiErr.Message)
}

func TestClient_ServerMessages(t *testing.T) {
	ctx := context.Background()
	c := newClient(newAPI(t, "").URL)

	_, err := c.CreateProduct(ctx, testLight("Twin"))
	require.NoError(t, err)

	_, err = c.CreateProduct(ctx, testLight("Twin"))
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Product with this name already exists", apiErr.Message)
	assert.False(t, errors.Is(err, client.ErrNotFound))
	assert.False(t, errors.Is(err, client.ErrUnavailable))

	bad := testLight("Bad Price")
	bad.Price = str("10000")
	_, err = c.CreateProduct(ctx, bad)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Len(t, apiErr.Details, 1)
}

func TestClient_BulkAndStats(t *testing.T) {
	ctx := context.Background()
	c := newClient(newAPI(t, "").URL)

	inputs, err := catalog.Inputs()
	require.NoError(t, err)
	inputs = append(inputs[:3], models.ProductInput{Price: str("₦1,000")})

	result, err := c.BulkCreateProducts(ctx, inputs)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Summary.TotalProcessed)
	assert.Equal(t, 3, result.Summary.SuccessCount)
	assert.Equal(t, 1, result.Summary.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Index)
	assert.Len(t, result.Results, 3)

	stats, err := c.ProductStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Statistics.TotalProducts)
	assert.False(t, stats.GeneratedAt.IsZero())
}

func TestClient_Preconditions(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	ctx := context.Background()
	c := newClient(server.URL)

	_, err := c.GetProduct(ctx, "")
	assert.ErrorIs(t, err, client.ErrInvalidRequest)
	_, err = c.CreateProduct(ctx, models.ProductInput{})
	assert.ErrorIs(t, err, client.ErrInvalidRequest)
	_, err = c.CreateProduct(ctx, models.ProductInput{Name: str("No Price")})
	assert.ErrorIs(t, err, client.ErrInvalidRequest)
	_, err = c.UpdateProduct(ctx, "abc", models.ProductInput{})
	assert.ErrorIs(t, err, client.ErrInvalidRequest)
	_, err = c.DeleteProduct(ctx, "")
	assert.ErrorIs(t, err, client.ErrInvalidRequest)
	_, err = c.BulkCreateProducts(ctx, nil)
	assert.ErrorIs(t, err, client.ErrInvalidRequest)

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestClient_RetriesOnlyReads(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Database unavailable"}`))
	}))
	defer server.Close()

	ctx := context.Background()
	c := newClient(server.URL)

	_, err := c.ListProducts(ctx, models.ProductFilter{})
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "one call plus two retries")

	atomic.StoreInt32(&hits, 0)
	_, err = c.CreateProduct(ctx, testLight("Write Once"))
	assert.ErrorIs(t, err, client.ErrUnavailable)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Database unavailable", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_GenericMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	_, err := newClient(server.URL).GetProduct(context.Background(), "abc")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTeapot, apiErr.Status)
	assert.Equal(t, "Database operation failed", apiErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := client.New(client.Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := c.GetProduct(context.Background(), "abc")
	assert.ErrorIs(t, err, client.ErrTimeout)
	assert.False(t, errors.Is(err, client.ErrNetwork))
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := client.New(client.Config{BaseURL: url, Timeout: time.Second})
	_, err := c.ListProducts(context.Background(), models.ProductFilter{})
	assert.ErrorIs(t, err, client.ErrNetwork)
	assert.False(t, errors.Is(err, client.ErrTimeout))
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()
	c := newClient(newAPI(t, "s3cret").URL)

	_, err := c.CreateProduct(ctx, testLight("Guarded"))
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = c.Login(ctx, "admin", "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid username or password", apiErr.Message)

	expiresAt, err := c.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	_, err = c.CreateProduct(ctx, testLight("Guarded"))
	assert.NoError(t, err)
}
