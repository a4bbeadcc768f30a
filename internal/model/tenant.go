// internal/model/tenant.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type TenantStatus string

const (
	TenantActive     TenantStatus = "ACTIVE"
	TenantSuspended  TenantStatus = "SUSPENDED"
	TenantOffboarded TenantStatus = "OFFBOARDED"
)

func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantActive, TenantSuspended, TenantOffboarded:
		return true
	}
	return false
}

// CanTransitionTo enforces the lifecycle rules: ACTIVE and SUSPENDED are
// mutually reversible, OFFBOARDED is terminal.
func (s TenantStatus) CanTransitionTo(to TenantStatus) bool {
	if !to.IsValid() || s == to {
		return false
	}
	return s != TenantOffboarded
}

// Tenant is an isolated customer organization. Slug is unique, URL-safe and
// immutable after creation. Tenants are never hard-deleted; offboarding is a
// terminal status change.
type Tenant struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	Slug      string       `json:"slug" db:"slug"`
	Name      string       `json:"name" db:"name"`
	Status    TenantStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
