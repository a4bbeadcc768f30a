// internal/model/record.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one stored row of any entity type. TenantID is nil for child
// types, which inherit tenant scope through their parent aggregate.
type Record struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	EntityType EntityType      `json:"entity_type" db:"entity_type"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty" db:"tenant_id"`
	Payload    json.RawMessage `json:"payload" db:"payload"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
