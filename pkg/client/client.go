package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/terra-clan/car-marketplace/internal/catalog"
	"github.com/terra-clan/car-marketplace/internal/models"
)

// Client is a Go SDK for the car-marketplace API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken starts the client with an existing session token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new car-marketplace client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.StatusCode, e.Code, e.Message)
}

// Token returns the session token obtained by the last login or registration
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// CarList is a list response with its size
type CarList struct {
	Cars  []models.Car `json:"cars"`
	Total int          `json:"total"`
}

// Inventory is the dealer dashboard listing
type Inventory struct {
	DealerID string       `json:"dealer_id"`
	Cars     []models.Car `json:"cars"`
	Total    int          `json:"total"`
}

// Me describes the signed-in account
type Me struct {
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	var out map[string]interface{}
	return c.do(ctx, http.MethodGet, "/health", nil, &out)
}

// Ready checks if the service's dependencies are reachable
func (c *Client) Ready(ctx context.Context) error {
	var out map[string]interface{}
	return c.do(ctx, http.MethodGet, "/ready", nil, &out)
}

// ListCars searches listings. page may be negative or past the end; it wraps around.
func (c *Client) ListCars(ctx context.Context, filters catalog.SearchFilters, page, pageSize int) (*catalog.Page[models.Car], error) {
	query := filters.Values()
	setPage(query, page, pageSize)

	var out catalog.Page[models.Car]
	if err := c.do(ctx, http.MethodGet, "/api/v1/cars?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FeaturedCars retrieves one page of the featured carousel. pageSize 0 uses the server default.
func (c *Client) FeaturedCars(ctx context.Context, page, pageSize int) (*catalog.Page[models.Car], error) {
	query := url.Values{}
	setPage(query, page, pageSize)

	var out catalog.Page[models.Car]
	if err := c.do(ctx, http.MethodGet, "/api/v1/cars/featured?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCar retrieves a car by ID
func (c *Client) GetCar(ctx context.Context, id string) (*models.Car, error) {
	var out models.Car
	if err := c.do(ctx, http.MethodGet, "/api/v1/cars/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDealers retrieves dealers. top > 0 returns only the best rated.
func (c *Client) ListDealers(ctx context.Context, top int) ([]models.Dealer, error) {
	path := "/api/v1/dealers"
	if top > 0 {
		path += "?top=" + strconv.Itoa(top)
	}

	var out struct {
		Dealers []models.Dealer `json:"dealers"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Dealers, nil
}

// GetDealer retrieves a dealer by ID
func (c *Client) GetDealer(ctx context.Context, id string) (*models.Dealer, error) {
	var out models.Dealer
	if err := c.do(ctx, http.MethodGet, "/api/v1/dealers/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DealerCars retrieves a dealer's listings matching term
func (c *Client) DealerCars(ctx context.Context, id, term string) (*CarList, error) {
	path := "/api/v1/dealers/" + url.PathEscape(id) + "/cars"
	if term != "" {
		path += "?q=" + url.QueryEscape(term)
	}

	var out CarList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuildSearchQuery asks the server to encode filters as a query string
func (c *Client) BuildSearchQuery(ctx context.Context, filters catalog.SearchFilters) (string, error) {
	var out struct {
		Query string `json:"query"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/search/query", filters, &out); err != nil {
		return "", err
	}
	return out.Query, nil
}

// Login signs in and keeps the session token for later calls
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/v1/auth/login", req)
}

// RegisterBuyer creates a buyer account and keeps its session token
func (c *Client) RegisterBuyer(ctx context.Context, req models.RegisterBuyerRequest) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/v1/auth/register/buyer", req)
}

// RegisterDealer creates a dealer account and keeps its session token
func (c *Client) RegisterDealer(ctx context.Context, req models.RegisterDealerRequest) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/v1/auth/register/dealer", req)
}

// Logout ends the current session
func (c *Client) Logout(ctx context.Context) error {
	var out map[string]string
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, &out); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

// Me retrieves the signed-in account
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyInventory retrieves the signed-in dealer's listings matching term
func (c *Client) MyInventory(ctx context.Context, term string) (*Inventory, error) {
	path := "/api/v1/me/inventory"
	if term != "" {
		path += "?q=" + url.QueryEscape(term)
	}

	var out Inventory
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyStats retrieves the signed-in dealer's statistics for a period
func (c *Client) MyStats(ctx context.Context, period catalog.StatsPeriod) (*catalog.DealerStats, error) {
	path := "/api/v1/me/stats"
	if period != "" {
		path += "?period=" + url.QueryEscape(string(period))
	}

	var out catalog.DealerStats
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) authenticate(ctx context.Context, path string, req interface{}) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return &out, nil
}

func setPage(query url.Values, page, pageSize int) {
	if page != 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize != 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
}

// do performs an HTTP request and unwraps the response envelope into out
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode, Code: "http_error", Message: string(respBody)}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "unknown", Message: http.StatusText(resp.StatusCode)}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
