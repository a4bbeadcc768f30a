// internal/tenant/resolver.go
package tenant

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"moveops/internal/httpx"
	"moveops/internal/metrics"
	"moveops/internal/model"
	"moveops/internal/storage"
)

// SlugHeader overrides host-based slug derivation when present.
const SlugHeader = "X-Tenant-Slug"

type contextKey string

const (
	tenantKey contextKey = "tenant"
	scopedKey contextKey = "scoped_access"
)

// Lookup is the slice of storage the resolver needs.
type Lookup interface {
	TenantBySlug(ctx context.Context, slug string) (*model.Tenant, error)
}

// Resolver derives the tenant for each request, enforces its lifecycle
// status, and binds a tenant-scoped data client into the request context.
// No handler behind it runs without a resolved ACTIVE tenant.
type Resolver struct {
	lookup Lookup
	base   storage.DataClient
}

func NewResolver(lookup Lookup, base storage.DataClient) *Resolver {
	return &Resolver{lookup: lookup, base: base}
}

func (rs *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := SlugFromRequest(r.Header.Get(SlugHeader), r.Host)
		if slug == "" {
			metrics.TenantResolutions.WithLabelValues("slug_required").Inc()
			httpx.Error(w, http.StatusBadRequest, "TENANT_REQUIRED",
				"request does not identify a tenant")
			return
		}

		t, err := rs.lookup.TenantBySlug(r.Context(), slug)
		if err != nil {
			if errors.Is(err, storage.ErrTenantNotFound) {
				metrics.TenantResolutions.WithLabelValues("not_found").Inc()
				notFound(w)
				return
			}
			logrus.WithError(err).WithField("slug", slug).Error("tenant lookup failed")
			metrics.TenantResolutions.WithLabelValues("error").Inc()
			httpx.Error(w, http.StatusInternalServerError, "INTERNAL",
				"request could not be completed")
			return
		}

		switch t.Status {
		case model.TenantActive:
			// proceed
		case model.TenantSuspended:
			metrics.TenantResolutions.WithLabelValues("suspended").Inc()
			httpx.Error(w, http.StatusForbidden, "TENANT_SUSPENDED",
				"this tenant is suspended")
			return
		case model.TenantOffboarded:
			// Indistinguishable from an unknown slug so former tenants
			// cannot be probed for existence.
			metrics.TenantResolutions.WithLabelValues("offboarded").Inc()
			notFound(w)
			return
		default:
			logrus.WithField("status", t.Status).Error("tenant has unknown status")
			metrics.TenantResolutions.WithLabelValues("error").Inc()
			httpx.Error(w, http.StatusInternalServerError, "INTERNAL",
				"request could not be completed")
			return
		}

		metrics.TenantResolutions.WithLabelValues("resolved").Inc()
		scoped := storage.NewScopedClient(rs.base, t.ID)
		ctx := context.WithValue(r.Context(), tenantKey, t)
		ctx = context.WithValue(ctx, scopedKey, scoped)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func notFound(w http.ResponseWriter) {
	httpx.Error(w, http.StatusNotFound, "TENANT_NOT_FOUND", "tenant not found")
}

// TenantFrom extracts the resolved tenant; nil means the request never
// passed the resolver.
func TenantFrom(r *http.Request) *model.Tenant {
	if t, ok := r.Context().Value(tenantKey).(*model.Tenant); ok {
		return t
	}
	return nil
}

// ScopedFrom extracts the per-request tenant-scoped data client.
func ScopedFrom(r *http.Request) *storage.ScopedClient {
	if c, ok := r.Context().Value(scopedKey).(*storage.ScopedClient); ok {
		return c
	}
	return nil
}
