package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/car-marketplace/internal/auth"
	"github.com/terra-clan/car-marketplace/internal/catalog"
	"github.com/terra-clan/car-marketplace/internal/config"
	"github.com/terra-clan/car-marketplace/internal/models"
	"github.com/terra-clan/car-marketplace/internal/services"
)

const (
	defaultCarsPageSize     = 12
	defaultFeaturedPageSize = 4
)

// Options tunes behaviour that is not part of the listen configuration
type Options struct {
	FeaturedPageSize int
	LoginRateLimit   float64 // requests per second per client IP; 0 disables limiting
	LoginBurst       int
}

// Server represents the HTTP API server
type Server struct {
	config           config.ServerConfig
	router           *chi.Mux
	catalog          *catalog.Catalog
	auth             *auth.Service
	registry         *services.Registry
	authMiddleware   *AuthMiddleware
	loginLimiter     *ipRateLimiter
	featuredPageSize int
	now              func() time.Time
}

// NewServer creates a new API server. registry may be nil, in which case /ready
// reports ready without probing anything.
func NewServer(
	cfg config.ServerConfig,
	cat *catalog.Catalog,
	authService *auth.Service,
	registry *services.Registry,
	opts Options,
) *Server {
	if opts.FeaturedPageSize <= 0 {
		opts.FeaturedPageSize = defaultFeaturedPageSize
	}

	s := &Server{
		config:           cfg,
		catalog:          cat,
		auth:             authService,
		registry:         registry,
		authMiddleware:   NewAuthMiddleware(authService),
		featuredPageSize: opts.FeaturedPageSize,
		now:              time.Now,
	}
	if opts.LoginRateLimit > 0 {
		s.loginLimiter = newIPRateLimiter(opts.LoginRateLimit, opts.LoginBurst)
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Websocket connections outlive the request timeout
	r.Get("/ws/featured", s.handleFeaturedWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Route("/cars", func(r chi.Router) {
			r.Get("/", s.handleListCars)
			r.Get("/featured", s.handleFeaturedCars)
			r.Get("/{id}", s.handleGetCar)
		})

		r.Route("/dealers", func(r chi.Router) {
			r.Get("/", s.handleListDealers)
			r.Get("/{id}", s.handleGetDealer)
			r.Get("/{id}/cars", s.handleDealerCars)
		})

		r.Post("/search/query", s.handleBuildSearchQuery)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if s.loginLimiter != nil {
					r.Use(s.loginLimiter.Middleware)
				}
				r.Post("/login", s.handleLogin)
				r.Post("/register/buyer", s.handleRegisterBuyer)
				r.Post("/register/dealer", s.handleRegisterDealer)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware.Authenticate)
				r.Post("/logout", s.handleLogout)
				r.Get("/me", s.handleMe)
			})
		})

		// Dealer dashboard
		r.Route("/me", func(r chi.Router) {
			r.Use(s.authMiddleware.Authenticate)
			r.Use(RequireRole(models.RoleDealer))
			r.Get("/inventory", s.handleMyInventory)
			r.Get("/stats", s.handleMyStats)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
