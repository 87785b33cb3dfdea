// Package client is a typed HTTP client for the product API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"solarshop/internal/models"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrTimeout is returned when a call exceeds its time bound.
	ErrTimeout = errors.New("request timed out, please check your connection")
	// ErrNetwork is returned when the API cannot be reached at all.
	ErrNetwork = errors.New("network error")
	// ErrNotFound is matched by API errors with status 404.
	ErrNotFound = errors.New("resource not found")
	// ErrUnavailable is matched by API errors with status 500 and above.
	ErrUnavailable = errors.New("database connection failed, please check your connection and try again")
	// ErrInvalidRequest is returned before any call is made when the
	// arguments cannot form a valid request.
	ErrInvalidRequest = errors.New("invalid request")
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Details []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrNotFound and ErrUnavailable.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return ErrUnavailable
	}
	return nil
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	Retries       int
	RetryWaitTime time.Duration
	Token         string
}

// Client calls the product API.
type Client struct {
	http *resty.Client
}

// New creates a Client. Only GET requests are retried, on transport errors
// and on 502, 503 and 504.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryWaitTime <= 0 {
		cfg.RetryWaitTime = 500 * time.Millisecond
	}

	r := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(4*cfg.RetryWaitTime).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(retryable)
	if cfg.Token != "" {
		r.SetAuthToken(cfg.Token)
	}
	return &Client{http: r}
}

func retryable(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	switch resp.StatusCode() {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

type errorBody struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// do sends req and normalises the failure modes.
func (c *Client) do(req *resty.Request, method, path string) (*resty.Response, error) {
	req.SetError(&errorBody{})
	resp, err := req.Execute(method, path)
	if err != nil {
		log.Printf("%s %s failed: %v", method, path, err)
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrNetwork, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}
	return resp, nil
}

func newAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
		apiErr.Details = decodeDetails(body.Details)
	}
	switch {
	case apiErr.Status == http.StatusNotFound && apiErr.Message == "":
		apiErr.Message = "Resource not found"
	case apiErr.Status >= http.StatusInternalServerError && apiErr.Message == "":
		apiErr.Message = "Database connection failed"
	case apiErr.Message == "":
		apiErr.Message = "Database operation failed"
	}
	return apiErr
}

// decodeDetails accepts details as a list of messages or a single string.
func decodeDetails(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products []models.Product
	Total    int64
}

// ListProducts fetches products matching filter. Total comes from the
// X-Total-Count header.
func (c *Client) ListProducts(ctx context.Context, filter models.ProductFilter) (*ProductPage, error) {
	var products []models.Product
	resp, err := c.do(c.http.R().
		SetContext(ctx).
		SetQueryParams(filterQuery(filter)).
		SetResult(&products), http.MethodGet, "/products")
	if err != nil {
		return nil, err
	}

	total := int64(len(products))
	if header := resp.Header().Get("X-Total-Count"); header != "" {
		if n, err := strconv.ParseInt(header, 10, 64); err == nil {
			total = n
		}
	}
	if products == nil {
		products = []models.Product{}
	}
	return &ProductPage{Products: products, Total: total}, nil
}

// filterQuery renders the set fields of filter as query parameters.
func filterQuery(filter models.ProductFilter) map[string]string {
	q := map[string]string{}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.InStock != nil {
		q["inStock"] = strconv.FormatBool(*filter.InStock)
	}
	if filter.MinWattage != nil {
		q["minWattage"] = strconv.FormatFloat(*filter.MinWattage, 'f', -1, 64)
	}
	if filter.MaxWattage != nil {
		q["maxWattage"] = strconv.FormatFloat(*filter.MaxWattage, 'f', -1, 64)
	}
	if filter.SortBy != "" {
		q["sortBy"] = filter.SortBy
	}
	if filter.Limit > 0 {
		q["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Skip > 0 {
		q["skip"] = strconv.Itoa(filter.Skip)
	}
	return q
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product ID is required", ErrInvalidRequest)
	}
	var product models.Product
	_, err := c.do(c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&product), http.MethodGet, "/products/{id}")
	if err != nil {
		return nil, err
	}
	return &product, nil
}

type productEnvelope struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

// CreateProduct creates a product. Name and price must be supplied.
func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if in.IsEmpty() {
		return nil, fmt.Errorf("%w: product data is required", ErrInvalidRequest)
	}
	if in.Name == nil || *in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if in.Price == nil || *in.Price == "" {
		return nil, fmt.Errorf("%w: price is required", ErrInvalidRequest)
	}

	var out productEnvelope
	_, err := c.do(c.http.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&out), http.MethodPost, "/products")
	if err != nil {
		return nil, err
	}
	return out.Product, nil
}

// UpdateProduct applies a partial update.
func (c *Client) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product ID is required", ErrInvalidRequest)
	}
	if in.IsEmpty() {
		return nil, fmt.Errorf("%w: update data is required", ErrInvalidRequest)
	}

	var out productEnvelope
	_, err := c.do(c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(in).
		SetResult(&out), http.MethodPut, "/products/{id}")
	if err != nil {
		return nil, err
	}
	return out.Product, nil
}

// DeleteResult reports a deletion.
type DeleteResult struct {
	Message      string `json:"message"`
	DeletedID    string `json:"deletedId"`
	DeletedCount int64  `json:"deletedCount"`
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) (*DeleteResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product ID is required", ErrInvalidRequest)
	}
	var out DeleteResult
	_, err := c.do(c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out), http.MethodDelete, "/products/{id}")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkError is one rejected entry of a bulk create.
type BulkError struct {
	Index   int      `json:"index"`
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// BulkSummary counts the outcome of a bulk create.
type BulkSummary struct {
	TotalProcessed int `json:"totalProcessed"`
	SuccessCount   int `json:"successCount"`
	ErrorCount     int `json:"errorCount"`
}

// BulkResult is the response of a bulk create.
type BulkResult struct {
	Message string           `json:"message"`
	Results []models.Product `json:"results"`
	Errors  []BulkError      `json:"errors"`
	Summary BulkSummary      `json:"summary"`
}

// BulkCreateProducts creates several products in one call.
func (c *Client) BulkCreateProducts(ctx context.Context, products []models.ProductInput) (*BulkResult, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: products array is required", ErrInvalidRequest)
	}
	var out BulkResult
	_, err := c.do(c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"products": products}).
		SetResult(&out), http.MethodPost, "/products/bulk")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// StatsResult is the response of the statistics endpoint.
type StatsResult struct {
	Statistics  models.ProductStats `json:"statistics"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// ProductStats fetches catalog statistics.
func (c *Client) ProductStats(ctx context.Context) (*StatsResult, error) {
	var out StatsResult
	_, err := c.do(c.http.R().
		SetContext(ctx).
		SetResult(&out), http.MethodGet, "/products/stats")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges admin credentials for a token and uses it for every
// following request.
func (c *Client) Login(ctx context.Context, username, password string) (time.Time, error) {
	var out loginResponse
	_, err := c.do(c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out), http.MethodPost, "/auth/login")
	if err != nil {
		return time.Time{}, err
	}
	c.SetToken(out.Token)
	return out.ExpiresAt, nil
}
