// internal/tenant/slug.go
package tenant

import (
	"net"
	"regexp"
	"strings"
)

// Reserved host labels that can never be tenant slugs: shared entry points
// the platform itself owns.
var reservedLabels = map[string]struct{}{
	"www":    {},
	"api":    {},
	"admin":  {},
	"app":    {},
	"status": {},
}

func IsReservedSlug(slug string) bool {
	_, ok := reservedLabels[slug]
	return ok
}

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidSlug reports whether s is a usable tenant slug: lowercase URL-safe,
// not a reserved label.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s) && !IsReservedSlug(s)
}

// SlugFromRequest derives the tenant slug for a request. An explicit
// override header wins; otherwise the leftmost label of the routing host is
// used, but only when the host has at least three dot-separated segments
// (i.e. it is a tenant subdomain, not the bare platform domain) and the
// label is not reserved. Empty means no slug was derivable.
func SlugFromRequest(headerSlug, host string) string {
	if headerSlug != "" {
		return strings.ToLower(strings.TrimSpace(headerSlug))
	}

	host = normalizeHost(host)
	if host == "" {
		return ""
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	if IsReservedSlug(parts[0]) {
		return ""
	}
	return parts[0]
}

func normalizeHost(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(raw); err == nil {
		return strings.TrimSpace(h)
	}
	return raw
}
