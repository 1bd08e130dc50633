package api

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/terra-clan/car-marketplace/internal/auth"
	"github.com/terra-clan/car-marketplace/internal/models"
)

// AuthMiddleware handles bearer token authentication
type AuthMiddleware struct {
	auth *auth.Service
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(service *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{auth: service}
}

// Authenticate resolves the session token from the Authorization header
// Supports formats: "Bearer <token>" or the raw token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "provide Authorization header with Bearer token")
			return
		}

		user, session, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrSessionNotFound) {
				slog.Warn("invalid session token", "token_prefix", maskToken(token), "remote_addr", r.RemoteAddr)
				respondError(w, http.StatusUnauthorized, "unauthorized", "session is invalid or expired")
				return
			}
			slog.Error("failed to authenticate session", "error", err, "token_prefix", maskToken(token))
			respondError(w, http.StatusInternalServerError, "internal_error", "authentication error")
			return
		}

		slog.Debug("authenticated request", "user_id", user.ID, "role", user.Role)

		ctx := ContextWithUser(r.Context(), user, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole returns middleware that only lets users with the given role through
func RequireRole(role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			if !user.HasRole(role) {
				slog.Warn("permission denied",
					"user_id", user.ID,
					"required", role,
					"has", user.Role,
				)
				respondError(w, http.StatusForbidden, "forbidden", "requires role: "+string(role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the session token from request headers
func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}

// maskToken returns first 8 chars of token for safe logging
func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:8] + "..."
}

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP
type ipRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newIPRateLimiter(perSecond float64, burst int) *ipRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterSweepInterval {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the per-IP budget with 429
func (l *ipRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.allow(ip) {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port RemoteAddr carries unless RealIP already replaced it
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
