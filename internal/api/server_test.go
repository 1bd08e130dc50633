package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/terra-clan/car-marketplace/internal/auth"
	"github.com/terra-clan/car-marketplace/internal/catalog"
	"github.com/terra-clan/car-marketplace/internal/config"
	"github.com/terra-clan/car-marketplace/internal/models"
	"github.com/terra-clan/car-marketplace/internal/services"
	"github.com/terra-clan/car-marketplace/internal/storage"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

const demoPassword = "demo1234"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type testEnv struct {
	server  *Server
	catalog *catalog.Catalog
	auth    *auth.Service
}

func newTestEnv(t *testing.T, registry *services.Registry, opts Options) *testEnv {
	t.Helper()

	generator, err := catalog.NewGenerator(catalog.NewSeededRand(42), catalog.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	cat := generator.Generate()
	svc := auth.NewService(storage.NewMemoryRepository(), cat, auth.Config{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost})

	_, err = svc.SeedDemoUsers(context.Background(), cat.Dealers(), demoPassword)
	require.NoError(t, err)

	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, cat, svc, registry, opts)
	srv.now = func() time.Time { return fixedNow }

	return &testEnv{server: srv, catalog: cat, auth: svc}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	rec, env := e.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Email: email, Password: demoPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	rec, env := e.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	body := decode[map[string]interface{}](t, env.Data)
	assert.Equal(t, "healthy", body["status"])
}

func TestReady(t *testing.T) {
	t.Run("no registry", func(t *testing.T) {
		e := newTestEnv(t, nil, Options{})
		rec, _ := e.do(t, http.MethodGet, "/ready", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing probe", func(t *testing.T) {
		registry := services.NewRegistry()
		registry.Register("storage", services.NewCheckFunc("memory", func(context.Context) error { return nil }))
		registry.Register("redis", services.NewCheckFunc("redis", func(context.Context) error { return errors.New("connection refused") }))

		e := newTestEnv(t, registry, Options{})
		rec, env := e.do(t, http.MethodGet, "/ready", nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "not_ready", env.Error.Code)

		body := decode[struct {
			Checks map[string]string `json:"checks"`
		}](t, env.Data)
		assert.Equal(t, "ok", body.Checks["storage"])
		assert.Equal(t, "connection refused", body.Checks["redis"])
	})
}

func TestListCars(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/cars?page_size=5&minPrice=20000&maxPrice=40000", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[catalog.Page[models.Car]](t, env.Data)
	want, err := catalog.ApplySearchFilters(e.catalog.Cars(), catalog.SearchFilters{MinPrice: 20000, MaxPrice: 40000})
	require.NoError(t, err)

	assert.Equal(t, len(want), page.TotalItems)
	assert.LessOrEqual(t, len(page.Items), 5)
	for _, car := range page.Items {
		assert.GreaterOrEqual(t, car.Price, 20000)
		assert.LessOrEqual(t, car.Price, 40000)
	}
}

func TestListCars_Facets(t *testing.T) {
	e := newTestEnv(t, nil, Options{})
	first := e.catalog.Cars()[0]

	rec, env := e.do(t, http.MethodGet, "/api/v1/cars?page_size=100&make="+url.QueryEscape(first.Make)+"&transmission="+url.QueryEscape(first.Transmission), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[catalog.Page[models.Car]](t, env.Data)
	require.NotEmpty(t, page.Items)
	for _, car := range page.Items {
		assert.Equal(t, first.Make, car.Make)
		assert.Equal(t, first.Transmission, car.Transmission)
	}
}

func TestListCars_HugePageSize(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/cars?page_size="+strconv.Itoa(math.MaxInt), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[catalog.Page[models.Car]](t, env.Data)
	assert.Equal(t, math.MaxInt, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 0, page.Page)
	assert.Len(t, page.Items, len(e.catalog.Cars()))
}

func TestListCars_BadInput(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"zero page size", "/api/v1/cars?page_size=0", "invalid_argument"},
		{"non-numeric page", "/api/v1/cars?page=first", "validation_error"},
		{"non-numeric price", "/api/v1/cars?minPrice=cheap", "invalid_argument"},
		{"inverted range", "/api/v1/cars?minYear=2020&maxYear=2010", "invalid_argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := e.do(t, http.MethodGet, tt.target, nil, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestFeaturedCars(t *testing.T) {
	e := newTestEnv(t, nil, Options{})
	featured := catalog.FilterFeatured(e.catalog.Cars())

	rec, env := e.do(t, http.MethodGet, "/api/v1/cars/featured", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[catalog.Page[models.Car]](t, env.Data)
	assert.Equal(t, defaultFeaturedPageSize, page.PageSize)
	assert.Equal(t, len(featured), page.TotalItems)
	assert.LessOrEqual(t, len(page.Items), defaultFeaturedPageSize)
	for _, car := range page.Items {
		assert.True(t, car.IsFeatured)
	}

	// page -1 wraps to the last page
	if page.TotalPages > 0 {
		rec, env = e.do(t, http.MethodGet, "/api/v1/cars/featured?page=-1", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		last := decode[catalog.Page[models.Car]](t, env.Data)
		assert.Equal(t, page.TotalPages-1, last.Page)
	}
}

func TestGetCar(t *testing.T) {
	e := newTestEnv(t, nil, Options{})
	want := e.catalog.Cars()[17]

	rec, env := e.do(t, http.MethodGet, "/api/v1/cars/"+want.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want.VIN, decode[models.Car](t, env.Data).VIN)

	rec, env = e.do(t, http.MethodGet, "/api/v1/cars/car-0", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestDealers(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/dealers?top=3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Dealers []models.Dealer `json:"dealers"`
		Total   int             `json:"total"`
	}](t, env.Data)
	require.Len(t, body.Dealers, 3)
	assert.Equal(t, catalog.SortDealersByRating(e.catalog.Dealers(), 3), body.Dealers)

	rec, _ = e.do(t, http.MethodGet, "/api/v1/dealers?top=three", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = e.do(t, http.MethodGet, "/api/v1/dealers/dealer-4", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Metro Auto Mall", decode[models.Dealer](t, env.Data).Name)

	rec, _ = e.do(t, http.MethodGet, "/api/v1/dealers/dealer-11", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDealerCars(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/dealers/dealer-4/cars", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Cars  []models.Car `json:"cars"`
		Total int          `json:"total"`
	}](t, env.Data)
	assert.Equal(t, catalog.CarsPerDealer, body.Total)
	for _, car := range body.Cars {
		assert.Equal(t, "dealer-4", car.DealerID)
	}

	rec, _ = e.do(t, http.MethodGet, "/api/v1/dealers/dealer-99/cars", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildSearchQuery(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	rec, env := e.do(t, http.MethodPost, "/api/v1/search/query", catalog.SearchFilters{MinPrice: 10000, Keyword: "corolla"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "keyword=corolla&minPrice=10000", decode[map[string]string](t, env.Data)["query"])

	rec, _ = e.do(t, http.MethodPost, "/api/v1/search/query", catalog.SearchFilters{MinPrice: 50000, MaxPrice: 10000}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	rec, env := e.do(t, http.MethodPost, "/api/v1/auth/register/buyer", models.RegisterBuyerRequest{
		FullName: "Emma Johnson",
		Email:    "emma@example.com",
		Password: "corolla2010",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[models.AuthResponse](t, env.Data)
	require.NotEmpty(t, reg.Token)

	rec, env = e.do(t, http.MethodGet, "/api/v1/auth/me", nil, reg.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		User models.User `json:"user"`
	}](t, env.Data)
	assert.Equal(t, "emma@example.com", me.User.Email)

	// buyers have no dealer dashboard
	rec, env = e.do(t, http.MethodGet, "/api/v1/me/inventory", nil, reg.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/v1/auth/logout", nil, reg.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = e.do(t, http.MethodGet, "/api/v1/auth/me", nil, reg.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthErrors(t *testing.T) {
	e := newTestEnv(t, nil, Options{})

	rec, env := e.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Email: auth.DemoBuyerEmail, Password: "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", env.Error.Code)

	rec, env = e.do(t, http.MethodPost, "/api/v1/auth/register/buyer", models.RegisterBuyerRequest{
		FullName: "Someone", Email: auth.DemoBuyerEmail, Password: "secret1",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email_taken", env.Error.Code)

	rec, env = e.do(t, http.MethodPost, "/api/v1/auth/register/dealer", models.RegisterDealerRequest{
		OwnerName: "Owner", Email: "owner@example.com", Password: "secret1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestDealerDashboard(t *testing.T) {
	e := newTestEnv(t, nil, Options{})
	token := e.login(t, "dealer4@example.com")

	rec, env := e.do(t, http.MethodGet, "/api/v1/me/inventory", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	inv := decode[struct {
		DealerID string       `json:"dealer_id"`
		Cars     []models.Car `json:"cars"`
	}](t, env.Data)
	assert.Equal(t, "dealer-4", inv.DealerID)
	assert.Len(t, inv.Cars, catalog.CarsPerDealer)

	rec, env = e.do(t, http.MethodGet, "/api/v1/me/stats?period=year", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[catalog.DealerStats](t, env.Data)
	want, err := catalog.ComputeDealerStats(e.catalog.Cars(), e.catalog.Transactions(), "dealer-4", catalog.PeriodYear, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, want.CarsSold, stats.CarsSold)
	assert.Equal(t, want.Revenue, stats.Revenue)
	assert.Equal(t, want.CarsListed, stats.CarsListed)

	rec, env = e.do(t, http.MethodGet, "/api/v1/me/stats?period=decade", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", env.Error.Code)
}

func TestLoginRateLimit(t *testing.T) {
	e := newTestEnv(t, nil, Options{LoginRateLimit: 0.001, LoginBurst: 2})
	req := models.LoginRequest{Email: auth.DemoBuyerEmail, Password: demoPassword}

	for i := 0; i < 2; i++ {
		rec, _ := e.do(t, http.MethodPost, "/api/v1/auth/login", req, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, env := e.do(t, http.MethodPost, "/api/v1/auth/login", req, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", env.Error.Code)

	// catalog routes are not limited
	rec, _ = e.do(t, http.MethodGet, "/api/v1/cars/featured", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFeaturedWebsocket(t *testing.T) {
	e := newTestEnv(t, nil, Options{})
	ts := httptest.NewServer(e.server.Router())
	defer ts.Close()

	featured := catalog.FilterFeatured(e.catalog.Cars())
	if len(featured) == 0 {
		t.Skip("seed produced no featured cars")
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/featured?page_size=2"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() CarouselFrame {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame CarouselFrame
		require.NoError(t, conn.ReadJSON(&frame))
		return frame
	}

	first := read()
	require.Equal(t, carouselPage, first.Type)
	require.NotNil(t, first.Data)
	assert.Equal(t, 0, first.Data.Page)
	totalPages := first.Data.TotalPages

	require.NoError(t, conn.WriteJSON(CarouselCommand{Type: carouselPrev}))
	prev := read()
	assert.Equal(t, totalPages-1, prev.Data.Page)

	require.NoError(t, conn.WriteJSON(CarouselCommand{Type: carouselNext}))
	assert.Equal(t, 0, read().Data.Page)

	require.NoError(t, conn.WriteJSON(CarouselCommand{Type: carouselPage, Page: totalPages + 1}))
	want, err := catalog.Paginate(featured, 2, totalPages+1)
	require.NoError(t, err)
	got := read().Data.Items
	require.Len(t, got, len(want.Items))
	for i := range want.Items {
		assert.Equal(t, want.Items[i].ID, got[i].ID)
	}

	require.NoError(t, conn.WriteJSON(CarouselCommand{Type: "shuffle"}))
	frame := read()
	assert.Equal(t, carouselError, frame.Type)
	assert.Nil(t, frame.Data)
}

func TestIPRateLimiter_SweepsIdleClients(t *testing.T) {
	l := newIPRateLimiter(1, 1)
	now := fixedNow
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))

	now = now.Add(limiterIdleTTL + limiterSweepInterval + time.Second)
	assert.True(t, l.allow("10.0.0.2"))
	assert.NotContains(t, l.clients, "10.0.0.1")
}
