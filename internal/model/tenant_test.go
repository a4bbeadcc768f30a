package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TenantStatus
		ok       bool
	}{
		{TenantActive, TenantSuspended, true},
		{TenantSuspended, TenantActive, true},
		{TenantActive, TenantOffboarded, true},
		{TenantSuspended, TenantOffboarded, true},
		{TenantOffboarded, TenantActive, false},
		{TenantOffboarded, TenantSuspended, false},
		{TenantActive, TenantActive, false},
		{TenantActive, TenantStatus("DELETED"), false},
	}
	for _, c := range cases {
		require.Equal(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTenantScopedCoversAllTypes(t *testing.T) {
	scoped := 0
	for _, et := range EntityTypes() {
		require.True(t, et.IsValid())
		if et.TenantScoped() {
			scoped++
		}
	}
	require.Equal(t, 10, scoped)
	require.False(t, EntityJobItem.TenantScoped())
	require.False(t, EntityInventoryItem.TenantScoped())
	require.False(t, EntityType("nonsense").IsValid())
}
