// internal/model/audit.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent records who did what. Actor is the durable subject from the
// verified token, never a display name.
type AuditEvent struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    string    `json:"action" db:"action"`
	TenantID  string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Detail    string    `json:"detail,omitempty" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
