package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"satsjar/internal/models"
	"satsjar/internal/security"
	"satsjar/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	ParentContextKey ContextKey = "parent"
	ChildContextKey  ContextKey = "child"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService   *service.AuthService
	familyService *service.FamilyService
	limiter       *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, familyService *service.FamilyService, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService:   authService,
		familyService: familyService,
		limiter:       limiter,
	}
}

// bearerToken extracts the token from an Authorization header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}

// RequireAuth is middleware that requires a valid parent token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, "missing bearer token", "", nil)
			return
		}

		parent, err := m.authService.ValidateToken(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "invalid or expired token", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ParentContextKey, parent)
		next(w, r.WithContext(ctx))
	}
}

// RequireChildAuth is middleware that requires a valid child session token
func (m *Middleware) RequireChildAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, "missing bearer token", "", nil)
			return
		}

		child, err := m.familyService.ValidateChildSession(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "invalid or expired session", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ChildContextKey, child)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit is middleware that limits request rate per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondWithError(w, http.StatusTooManyRequests, "too many requests", "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetParentFromContext retrieves the parent from the request context
func GetParentFromContext(ctx context.Context) *models.Parent {
	parent, ok := ctx.Value(ParentContextKey).(*models.Parent)
	if !ok {
		return nil
	}
	return parent
}

// GetChildFromContext retrieves the child from the request context
func GetChildFromContext(ctx context.Context) *models.Child {
	child, ok := ctx.Value(ChildContextKey).(*models.Child)
	if !ok {
		return nil
	}
	return child
}
