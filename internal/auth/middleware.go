// internal/auth/middleware.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"moveops/internal/httpx"
	"moveops/internal/metrics"
)

type contextKey string

const identityKey contextKey = "admin_identity"

// Identity is what a successfully authorized administrator request carries.
// Subject is used for audit attribution; Email is display-only.
type Identity struct {
	Subject string
	Email   string
}

// AdminAuthorizer guards administrator-only routes: bearer token present,
// verified, of the access class, carrying the platform-admin group.
type AdminAuthorizer struct {
	verifier   *Verifier
	adminGroup string
}

func NewAdminAuthorizer(v *Verifier, adminGroup string) *AdminAuthorizer {
	return &AdminAuthorizer{verifier: v, adminGroup: adminGroup}
}

func (a *AdminAuthorizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			a.deny(w, http.StatusUnauthorized, "UNAUTHORIZED")
			return
		}

		claims, err := a.verifier.Verify(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				a.deny(w, http.StatusUnauthorized, "TOKEN_EXPIRED")
				return
			}
			a.deny(w, http.StatusUnauthorized, "UNAUTHORIZED")
			return
		}

		if claims.TokenUse != TokenUseAccess {
			a.deny(w, http.StatusUnauthorized, "UNAUTHORIZED")
			return
		}
		if !slices.Contains(claims.Groups, a.adminGroup) {
			a.deny(w, http.StatusForbidden, "FORBIDDEN")
			return
		}
		// Well-formed tokens always carry a subject; treat its absence as an
		// unauthenticated request rather than trusting a hollow credential.
		if claims.Subject == "" {
			a.deny(w, http.StatusUnauthorized, "UNAUTHORIZED")
			return
		}

		metrics.AuthDecisions.WithLabelValues("allowed").Inc()
		ctx := context.WithValue(r.Context(), identityKey, Identity{
			Subject: claims.Subject,
			Email:   claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AdminAuthorizer) deny(w http.ResponseWriter, status int, code string) {
	// Response codes are upper-case on the wire; metric labels stay lower-case.
	metrics.AuthDecisions.WithLabelValues(strings.ToLower(code)).Inc()
	switch code {
	case "TOKEN_EXPIRED":
		httpx.Error(w, status, code, "access token has expired")
	case "FORBIDDEN":
		httpx.Error(w, status, code, "administrator privileges required")
	default:
		httpx.Error(w, status, code, "authentication required")
	}
}

// AdminFrom extracts the authorized identity from the request context. The
// zero Identity means the request never passed the authorizer.
func AdminFrom(r *http.Request) Identity {
	if v, ok := r.Context().Value(identityKey).(Identity); ok {
		return v
	}
	return Identity{}
}
