package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"moveops/internal/model"
	"moveops/internal/signin"
	"moveops/internal/storage"
	"moveops/internal/tenant"
)

type fakeDirectory struct {
	state  *signin.AccountState
	groups []string
}

func (f *fakeDirectory) AccountState(context.Context, string, string) (*signin.AccountState, error) {
	return f.state, nil
}

func (f *fakeDirectory) GroupMemberships(context.Context, string, string) ([]string, error) {
	return f.groups, nil
}

func postSignIn(t *testing.T, a *API, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/hooks/pre-signin", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	a.PreSignIn(rec, req)
	return rec
}

func TestPreSignInAllowEchoesEventUnmodified(t *testing.T) {
	a := &API{Gate: signin.NewGate(&fakeDirectory{
		state:  &signin.AccountState{Status: signin.AccountConfirmed, MFAMethods: []string{"TOTP"}},
		groups: []string{"PLATFORM_ADMIN"},
	}, "PLATFORM_ADMIN")}

	rec := postSignIn(t, a, `{"realmId":"pool-1","accountId":"acct-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var ev signin.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	require.Equal(t, signin.Event{RealmID: "pool-1", AccountID: "acct-1"}, ev)
}

func TestPreSignInBlockCarriesSpecificReason(t *testing.T) {
	a := &API{Gate: signin.NewGate(&fakeDirectory{
		state:  &signin.AccountState{Status: signin.AccountConfirmed},
		groups: []string{"PLATFORM_ADMIN"},
	}, "PLATFORM_ADMIN")}

	rec := postSignIn(t, a, `{"realmId":"pool-1","accountId":"acct-1"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "MFA enrollment is required")
}

func TestPreSignInMalformedBodyBlocksGenerically(t *testing.T) {
	a := &API{Gate: signin.NewGate(&fakeDirectory{}, "PLATFORM_ADMIN")}

	rec := postSignIn(t, a, `{not json`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), signin.ReasonGeneric)
}

// ---- tenant-scoped record routes ----

type memoryClient struct {
	records map[uuid.UUID]*model.Record
}

func newMemoryClient() *memoryClient {
	return &memoryClient{records: map[uuid.UUID]*model.Record{}}
}

func (m *memoryClient) matches(rec *model.Record, q storage.Query) bool {
	if rec.EntityType != q.Entity {
		return false
	}
	for k, v := range q.Filter {
		switch k {
		case "id":
			if rec.ID != v.(uuid.UUID) {
				return false
			}
		case "tenant_id":
			if rec.TenantID == nil || *rec.TenantID != v.(uuid.UUID) {
				return false
			}
		}
	}
	return true
}

func (m *memoryClient) Find(_ context.Context, q storage.Query) ([]model.Record, error) {
	var out []model.Record
	for _, rec := range m.records {
		if m.matches(rec, q) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *memoryClient) Count(_ context.Context, q storage.Query) (int64, error) {
	recs, _ := m.Find(context.Background(), q)
	return int64(len(recs)), nil
}

func (m *memoryClient) Create(_ context.Context, rec *model.Record) error {
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memoryClient) Update(_ context.Context, q storage.Query, payload json.RawMessage) (int64, error) {
	var n int64
	for _, rec := range m.records {
		if m.matches(rec, q) {
			rec.Payload = payload
			n++
		}
	}
	return n, nil
}

func (m *memoryClient) Delete(_ context.Context, q storage.Query) (int64, error) {
	var n int64
	for id, rec := range m.records {
		if m.matches(rec, q) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

type staticLookup struct {
	t *model.Tenant
}

func (s *staticLookup) TenantBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	if s.t.Slug == slug {
		return s.t, nil
	}
	return nil, storage.ErrTenantNotFound
}

func newRecordRouter(a *API) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(a.Resolver.Middleware)
		r.Get("/t/{entity}", a.ListRecords)
		r.Post("/t/{entity}", a.CreateRecord)
		r.Delete("/t/{entity}/{id}", a.DeleteRecord)
	})
	return r
}

func TestRecordRoutesStampAndScope(t *testing.T) {
	acme := &model.Tenant{
		ID: uuid.New(), Slug: "acme", Name: "Acme",
		Status: model.TenantActive, CreatedAt: time.Now().UTC(),
	}
	mem := newMemoryClient()
	a := &API{Resolver: tenant.NewResolver(&staticLookup{t: acme}, mem)}
	router := newRecordRouter(a)

	// A foreign tenant's row exists in the base store.
	foreignID := uuid.New()
	foreignTenant := uuid.New()
	require.NoError(t, mem.Create(context.Background(), &model.Record{
		ID: foreignID, EntityType: model.EntityCustomer, TenantID: &foreignTenant,
		Payload: json.RawMessage(`{"name":"foreign"}`),
	}))

	// Create stamps the resolved tenant id explicitly.
	req := httptest.NewRequest(http.MethodPost, "/t/customer", bytes.NewBufferString(`{"name":"local"}`))
	req.Header.Set(tenant.SlugHeader, "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.TenantID)
	require.Equal(t, acme.ID, *created.TenantID)

	// List never shows the foreign row.
	req = httptest.NewRequest(http.MethodGet, "/t/customer", nil)
	req.Header.Set(tenant.SlugHeader, "acme")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []model.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, created.ID, listed[0].ID)

	// Deleting the foreign row by id through the tenant surface is a 404.
	req = httptest.NewRequest(http.MethodDelete, "/t/customer/"+foreignID.String(), nil)
	req.Header.Set(tenant.SlugHeader, "acme")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, mem.records, foreignID)
}

func TestRecordRoutesRejectUnknownEntity(t *testing.T) {
	acme := &model.Tenant{
		ID: uuid.New(), Slug: "acme", Name: "Acme",
		Status: model.TenantActive, CreatedAt: time.Now().UTC(),
	}
	a := &API{Resolver: tenant.NewResolver(&staticLookup{t: acme}, newMemoryClient())}
	router := newRecordRouter(a)

	req := httptest.NewRequest(http.MethodGet, "/t/launch_codes", nil)
	req.Header.Set(tenant.SlugHeader, "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "UNKNOWN_ENTITY")
}
