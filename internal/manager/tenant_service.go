// internal/manager/tenant_service.go
package manager

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"moveops/internal/model"
	"moveops/internal/storage"
	"moveops/internal/tenant"
)

// Validation failures the API maps to 400/409 responses.
var (
	ErrInvalidSlug       = errors.New("invalid tenant slug")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TenantStore is the storage surface the lifecycle service needs.
type TenantStore interface {
	CreateTenant(ctx context.Context, t *model.Tenant) error
	TenantByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	UpdateTenantStatus(ctx context.Context, id uuid.UUID, from, to model.TenantStatus) error
}

// AuditSink receives lifecycle audit events; delivery is best effort.
type AuditSink interface {
	TryPublish(ev model.AuditEvent)
}

// TenantService owns tenant lifecycle: creation and status transitions.
// Tenants are never deleted; offboarding is the terminal status.
type TenantService struct {
	store TenantStore
	audit AuditSink
}

func NewTenantService(store TenantStore, audit AuditSink) *TenantService {
	return &TenantService{store: store, audit: audit}
}

// Create registers a new ACTIVE tenant. The slug is immutable afterwards.
func (s *TenantService) Create(ctx context.Context, actor, slug, name string) (*model.Tenant, error) {
	if !tenant.ValidSlug(slug) {
		return nil, ErrInvalidSlug
	}

	t := &model.Tenant{
		ID:        uuid.New(),
		Slug:      slug,
		Name:      name,
		Status:    model.TenantActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"tenant": t.ID, "slug": slug}).Info("tenant created")
	s.audit.TryPublish(model.AuditEvent{
		Actor:    actor,
		Action:   "tenant.create",
		TenantID: t.ID.String(),
		Detail:   slug,
	})
	return t, nil
}

// ChangeStatus applies one lifecycle transition. ACTIVE and SUSPENDED are
// mutually reversible; OFFBOARDED is terminal.
func (s *TenantService) ChangeStatus(ctx context.Context, actor string, id uuid.UUID, to model.TenantStatus) (*model.Tenant, error) {
	t, err := s.store.TenantByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Status.CanTransitionTo(to) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", t.Status, to)
	}

	// The write carries the observed from-status: if another request changed
	// the row in between, the swap misses and this transition is rejected
	// instead of silently reversing it.
	if err := s.store.UpdateTenantStatus(ctx, id, t.Status, to); err != nil {
		if errors.Is(err, storage.ErrStatusConflict) {
			return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s: concurrent status change", t.Status, to)
		}
		return nil, err
	}
	from := t.Status
	t.Status = to

	logrus.WithFields(logrus.Fields{
		"tenant": id, "from": from, "to": to,
	}).Info("tenant status changed")
	s.audit.TryPublish(model.AuditEvent{
		Actor:    actor,
		Action:   "tenant.status_change",
		TenantID: id.String(),
		Detail:   string(from) + " -> " + string(to),
	})
	return t, nil
}

func (s *TenantService) List(ctx context.Context) ([]model.Tenant, error) {
	return s.store.ListTenants(ctx)
}
