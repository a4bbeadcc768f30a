// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"moveops/internal/model"
)

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "connect to db")
	}
	return &Storage{DB: db}, nil
}

// EnsureSchema creates the tables this module owns if they do not exist.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS records (
			id UUID PRIMARY KEY,
			entity_type TEXT NOT NULL,
			tenant_id UUID,
			payload JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS records_entity_tenant_idx
			ON records (entity_type, tenant_id);
		CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			tenant_id TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return errors.Wrap(err, "ensure schema")
}

// ---- tenants ----

func (s *Storage) CreateTenant(ctx context.Context, t *model.Tenant) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO tenants (id, slug, name, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Slug, t.Name, t.Status, t.CreatedAt)
	return errors.Wrap(err, "insert tenant")
}

// ErrTenantNotFound reports a slug or id with no tenant row behind it.
var ErrTenantNotFound = errors.New("tenant not found")

func (s *Storage) TenantBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	return s.tenantWhere(ctx, "slug = $1", slug)
}

func (s *Storage) TenantByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	return s.tenantWhere(ctx, "id = $1", id)
}

func (s *Storage) tenantWhere(ctx context.Context, cond string, arg interface{}) (*model.Tenant, error) {
	var t model.Tenant
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, slug, name, status, created_at FROM tenants WHERE `+cond,
		arg,
	).Scan(&t.ID, &t.Slug, &t.Name, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query tenant")
	}
	return &t, nil
}

func (s *Storage) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, slug, name, status, created_at FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "list tenants")
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Status, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan tenant")
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// ErrStatusConflict reports a lifecycle write that lost to a concurrent
// status change: the observed from-status no longer matched the row.
var ErrStatusConflict = errors.New("tenant status changed concurrently")

// UpdateTenantStatus is a compare-and-swap on the status column. The write
// only lands if the row still carries the from-status the caller observed,
// so a stale transition can never overwrite a terminal OFFBOARDED state.
func (s *Storage) UpdateTenantStatus(ctx context.Context, id uuid.UUID, from, to model.TenantStatus) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tenants SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return errors.Wrap(err, "update tenant status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ---- audit ----

func (s *Storage) InsertAuditEvent(ctx context.Context, ev *model.AuditEvent) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO audit_events (id, actor, action, tenant_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ev.ID, ev.Actor, ev.Action, ev.TenantID, ev.Detail, ev.CreatedAt)
	return errors.Wrap(err, "insert audit event")
}

// ---- generic records (DataClient) ----

// buildWhere turns a query into a WHERE clause. "id" and "tenant_id" hit
// columns; the remaining filter keys collapse into one JSONB containment
// check against the payload.
func buildWhere(q Query) (string, []interface{}, error) {
	conds := []string{"entity_type = $1"}
	args := []interface{}{string(q.Entity)}

	payloadFilter := map[string]interface{}{}
	for k, v := range q.Filter {
		switch k {
		case "id":
			args = append(args, v)
			conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
		case "tenant_id":
			args = append(args, v)
			conds = append(conds, fmt.Sprintf("tenant_id = $%d", len(args)))
		default:
			payloadFilter[k] = v
		}
	}
	if len(payloadFilter) > 0 {
		b, err := json.Marshal(payloadFilter)
		if err != nil {
			return "", nil, errors.Wrap(err, "marshal payload filter")
		}
		args = append(args, string(b))
		conds = append(conds, fmt.Sprintf("payload @> $%d::jsonb", len(args)))
	}
	return strings.Join(conds, " AND "), args, nil
}

func (s *Storage) Find(ctx context.Context, q Query) ([]model.Record, error) {
	where, args, err := buildWhere(q)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, entity_type, tenant_id, payload, created_at FROM records WHERE ` + where + ` ORDER BY id`
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query records")
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.ID, &rec.EntityType, &rec.TenantID, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Storage) Count(ctx context.Context, q Query) (int64, error) {
	where, args, err := buildWhere(q)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE `+where, args...).Scan(&n)
	return n, errors.Wrap(err, "count records")
}

func (s *Storage) Create(ctx context.Context, rec *model.Record) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO records (id, entity_type, tenant_id, payload, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5)
	`, rec.ID, rec.EntityType, rec.TenantID, string(rec.Payload), rec.CreatedAt)
	return errors.Wrap(err, "insert record")
}

func (s *Storage) Update(ctx context.Context, q Query, payload json.RawMessage) (int64, error) {
	where, args, err := buildWhere(q)
	if err != nil {
		return 0, err
	}
	args = append(args, string(payload))
	res, err := s.DB.ExecContext(ctx,
		fmt.Sprintf(`UPDATE records SET payload = $%d::jsonb WHERE %s`, len(args), where),
		args...)
	if err != nil {
		return 0, errors.Wrap(err, "update records")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "rows affected")
}

func (s *Storage) Delete(ctx context.Context, q Query) (int64, error) {
	where, args, err := buildWhere(q)
	if err != nil {
		return 0, err
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM records WHERE `+where, args...)
	if err != nil {
		return 0, errors.Wrap(err, "delete records")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "rows affected")
}
