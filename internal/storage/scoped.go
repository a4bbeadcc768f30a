// internal/storage/scoped.go
package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"moveops/internal/model"
)

// ScopedClient decorates a DataClient so that every find/count/update/delete
// against a tenant-scoped entity type carries the bound tenant id in its
// filter, whether or not the caller supplied one. A handler going through a
// ScopedClient cannot reach another tenant's rows; the guarantee is
// structural, not a convention.
//
// Creates are deliberately not intercepted: callers stamp the tenant id on
// new records explicitly, because create payload shapes differ per type and
// a uniform injection would be the riskier contract.
//
// A ScopedClient is built fresh per request and captures only the tenant id
// by value.
type ScopedClient struct {
	base     DataClient
	tenantID uuid.UUID
}

func NewScopedClient(base DataClient, tenantID uuid.UUID) *ScopedClient {
	return &ScopedClient{base: base, tenantID: tenantID}
}

func (s *ScopedClient) TenantID() uuid.UUID {
	return s.tenantID
}

// scope rewrites a query's filter for the given operation kind. The switch is
// exhaustive over OpKind; a new kind must take a position here before it can
// be used.
func (s *ScopedClient) scope(kind OpKind, q Query) Query {
	if !q.Entity.TenantScoped() {
		return q
	}
	switch kind {
	case OpFind, OpCount, OpUpdate, OpDelete:
		f := q.Filter.clone()
		f["tenant_id"] = s.tenantID
		q.Filter = f
	case OpCreate:
		// pass through: tenant id is stamped explicitly by the caller
	}
	return q
}

func (s *ScopedClient) Find(ctx context.Context, q Query) ([]model.Record, error) {
	return s.base.Find(ctx, s.scope(OpFind, q))
}

func (s *ScopedClient) Count(ctx context.Context, q Query) (int64, error) {
	return s.base.Count(ctx, s.scope(OpCount, q))
}

func (s *ScopedClient) Create(ctx context.Context, rec *model.Record) error {
	return s.base.Create(ctx, rec)
}

func (s *ScopedClient) Update(ctx context.Context, q Query, payload json.RawMessage) (int64, error) {
	return s.base.Update(ctx, s.scope(OpUpdate, q), payload)
}

func (s *ScopedClient) Delete(ctx context.Context, q Query) (int64, error) {
	return s.base.Delete(ctx, s.scope(OpDelete, q))
}

var _ DataClient = (*ScopedClient)(nil)
