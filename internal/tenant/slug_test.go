package tenant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugFromRequestHeaderWins(t *testing.T) {
	require.Equal(t, "acme", SlugFromRequest("acme", "other.moveops.io"))
	require.Equal(t, "acme", SlugFromRequest("  ACME ", "ignored"))
}

func TestSlugFromRequestHostDerivation(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{"acme.moveops.io", "acme"},
		{"acme.moveops.io:8080", "acme"},
		{"ACME.MoveOps.IO", "acme"},
		{"acme.eu.moveops.io", "acme"},
		// bare platform domain has only two segments
		{"moveops.io", ""},
		{"localhost", ""},
		// reserved labels never resolve to a tenant
		{"www.moveops.io", ""},
		{"api.moveops.io", ""},
		{"", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, SlugFromRequest("", c.host), "host=%q", c.host)
	}
}

func TestValidSlug(t *testing.T) {
	valid := []string{"acme", "acme-moving", "a1", "x"}
	for _, s := range valid {
		require.True(t, ValidSlug(s), s)
	}
	invalid := []string{"", "-acme", "acme-", "Acme", "ac me", "admin", "www", "app"}
	for _, s := range invalid {
		require.False(t, ValidSlug(s), s)
	}
}
