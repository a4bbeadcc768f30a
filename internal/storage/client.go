// internal/storage/client.go
package storage

import (
	"context"
	"encoding/json"

	"moveops/internal/model"
)

// OpKind is the closed set of operations a data client performs. Scoping
// decisions dispatch on it with an exhaustive switch, so a new kind must be
// handled everywhere before it can ship.
type OpKind int

const (
	OpFind OpKind = iota
	OpCount
	OpCreate
	OpUpdate
	OpDelete
)

// Filter is a conjunction of field equalities. "id" and "tenant_id" match
// columns; every other key matches inside the JSON payload.
type Filter map[string]interface{}

// clone returns a copy so scoping never mutates a caller's map.
func (f Filter) clone() Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	return out
}

type Query struct {
	Entity model.EntityType
	Filter Filter
	Limit  int
}

// DataClient is the generic repository every handler goes through. The base
// implementation is Postgres-backed; ScopedClient decorates it per request.
type DataClient interface {
	Find(ctx context.Context, q Query) ([]model.Record, error)
	Count(ctx context.Context, q Query) (int64, error)
	Create(ctx context.Context, rec *model.Record) error
	Update(ctx context.Context, q Query, payload json.RawMessage) (int64, error)
	Delete(ctx context.Context, q Query) (int64, error)
}
