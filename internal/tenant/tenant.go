package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
)

const (
	// HeaderName carries the caller's tenant.
	HeaderName = "x-tenant-id"
	// DefaultTenantID is used when the header is missing or empty.
	DefaultTenantID = "default-tenant"
)

// Resolver derives a tenant identifier from an inbound request.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// HeaderResolver reads the tenant from a request header.
type HeaderResolver struct {
	Header  string
	Default string
}

func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{Header: HeaderName, Default: DefaultTenantID}
}

func (h *HeaderResolver) Resolve(r *http.Request) (string, error) {
	if id := r.Header.Get(h.Header); id != "" {
		return id, nil
	}
	return h.Default, nil
}

type Middleware func(next http.Handler) http.Handler

type contextKey string

const (
	tenantIDKey  contextKey = "tenant_id"
	requestIDKey contextKey = "request_id"
)

// NewMiddleware attaches the resolved tenant and a fresh request ID to the
// request context. Resolution is fail-closed: an error, a panic or an empty
// tenant rejects the request with 401.
func NewMiddleware(resolver Resolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			requestID := uuid.New().String()
			ctx = context.WithValue(ctx, requestIDKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			tenantID, err := safeResolve(resolver, r)
			if err == nil && tenantID == "" {
				err = fmt.Errorf("resolver returned empty tenant")
			}
			if err != nil {
				log.Printf("tenant: request %s: %v", requestID, err)
				WriteUnauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, tenantIDKey, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func safeResolve(resolver Resolver, r *http.Request) (id string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			id, err = "", fmt.Errorf("resolve tenant: panic: %v", rec)
		}
	}()
	if resolver == nil {
		return "", fmt.Errorf("resolve tenant: no resolver configured")
	}
	return resolver.Resolve(r)
}

// WriteUnauthorized writes the authentication-failure response.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Authentication failed"})
}

// Helpers to extract from context
func GetTenantID(ctx context.Context) string {
	if id, ok := ctx.Value(tenantIDKey).(string); ok {
		return id
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Helpers for testing
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
