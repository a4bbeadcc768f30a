package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	"moveops/internal/auth"
	"moveops/internal/httpx"
	"moveops/internal/manager"
	"moveops/internal/metrics"
	"moveops/internal/model"
	"moveops/internal/signin"
	"moveops/internal/storage"
	"moveops/internal/tenant"
)

func (a *API) Router() http.Handler {
	// Public
	a.Routers.Handle("/metrics", metrics.Handler())
	a.Routers.Get("/swagger/*", httpSwagger.Handler())
	a.Routers.Post("/hooks/pre-signin", a.PreSignIn)

	// Administrative: unscoped access, admin token required
	a.Routers.Group(func(r chi.Router) {
		r.Use(a.Admin.Middleware)

		r.Post("/admin/tenants", a.CreateTenant)
		r.Get("/admin/tenants", a.ListTenants)
		r.Put("/admin/tenants/{id}/status", a.UpdateTenantStatus)
	})

	// Tenant-facing: every data path goes through the scoped client
	a.Routers.Group(func(r chi.Router) {
		r.Use(a.Resolver.Middleware)

		r.Get("/t/{entity}", a.ListRecords)
		r.Post("/t/{entity}", a.CreateRecord)
		r.Put("/t/{entity}/{id}", a.UpdateRecord)
		r.Delete("/t/{entity}/{id}", a.DeleteRecord)
	})

	return a.Routers
}

// @Summary Pre-sign-in gate invoked by the identity provider
// @Tags Hooks
// @Accept json
// @Produce json
// @Success 200 {object} signin.Event
// @Failure 403 {object} httpx.ErrorBody
// @Router /hooks/pre-signin [post]
func (a *API) PreSignIn(w http.ResponseWriter, r *http.Request) {
	// The gate fails closed even on a panic in the decision path.
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithField("panic", rec).Error("pre-signin gate panicked")
			httpx.Error(w, http.StatusForbidden, "SIGNIN_BLOCKED", signin.ReasonGeneric)
		}
	}()

	var ev signin.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		httpx.Error(w, http.StatusForbidden, "SIGNIN_BLOCKED", signin.ReasonGeneric)
		return
	}

	d := a.Gate.Check(r.Context(), ev)
	if !d.Allow {
		httpx.Error(w, http.StatusForbidden, "SIGNIN_BLOCKED", d.Reason)
		return
	}

	// Allow returns the event unmodified.
	httpx.JSON(w, http.StatusOK, ev)
}

type createTenantRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// @Summary Create a tenant
// @Tags Tenants
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Success 201 {object} model.Tenant
// @Router /admin/tenants [post]
func (a *API) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var body createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	actor := auth.AdminFrom(r)
	t, err := a.Tenants.Create(r.Context(), actor.Subject, body.Slug, body.Name)
	if err != nil {
		if errors.Is(err, manager.ErrInvalidSlug) {
			httpx.Error(w, http.StatusBadRequest, "INVALID_SLUG", "tenant slug is not usable")
			return
		}
		logrus.WithError(err).Error("tenant create failed")
		httpx.Error(w, http.StatusInternalServerError, "INTERNAL", "request could not be completed")
		return
	}

	httpx.JSON(w, http.StatusCreated, t)
}

// @Summary List tenants
// @Tags Tenants
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} model.Tenant
// @Router /admin/tenants [get]
func (a *API) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := a.Tenants.List(r.Context())
	if err != nil {
		logrus.WithError(err).Error("tenant list failed")
		httpx.Error(w, http.StatusInternalServerError, "INTERNAL", "request could not be completed")
		return
	}
	httpx.JSON(w, http.StatusOK, tenants)
}

type statusChangeRequest struct {
	Status model.TenantStatus `json:"status"`
}

// @Summary Change a tenant's lifecycle status
// @Tags Tenants
// @Security ApiKeyAuth
// @Param id path string true "Tenant UUID"
// @Accept json
// @Produce json
// @Success 200 {object} model.Tenant
// @Router /admin/tenants/{id}/status [put]
func (a *API) UpdateTenantStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid tenant id")
		return
	}

	var body statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Status.IsValid() {
		httpx.Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid target status")
		return
	}

	actor := auth.AdminFrom(r)
	t, err := a.Tenants.ChangeStatus(r.Context(), actor.Subject, id, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTenantNotFound):
			httpx.Error(w, http.StatusNotFound, "TENANT_NOT_FOUND", "tenant not found")
		case errors.Is(err, manager.ErrInvalidTransition):
			httpx.Error(w, http.StatusConflict, "INVALID_TRANSITION", "status transition not allowed")
		default:
			logrus.WithError(err).Error("tenant status change failed")
			httpx.Error(w, http.StatusInternalServerError, "INTERNAL", "request could not be completed")
		}
		return
	}

	httpx.JSON(w, http.StatusOK, t)
}

func entityFromRequest(w http.ResponseWriter, r *http.Request) (model.EntityType, bool) {
	et := model.EntityType(chi.URLParam(r, "entity"))
	if !et.IsValid() {
		httpx.Error(w, http.StatusNotFound, "UNKNOWN_ENTITY", "unknown entity type")
		return "", false
	}
	return et, true
}

// @Summary List records of one entity type for the resolved tenant
// @Tags Records
// @Produce json
// @Param entity path string true "Entity type"
// @Success 200 {array} model.Record
// @Router /t/{entity} [get]
func (a *API) ListRecords(w http.ResponseWriter, r *http.Request) {
	et, ok := entityFromRequest(w, r)
	if !ok {
		return
	}

	scoped := tenant.ScopedFrom(r)
	records, err := scoped.Find(r.Context(), storage.Query{Entity: et, Limit: 100})
	if err != nil {
		logrus.WithError(err).Error("record list failed")
		httpx.Error(w, http.StatusInternalServerError, "INTERNAL", "request could not be completed")
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	httpx.JSON(w, http.StatusOK, records)
}

// @Summary Create a record for the resolved tenant
// @Tags Records
// @Accept json
// @Produce json
// @Param entity path string true "Entity type"
// @Success 201 {object} model.Record
// @Router /t/{entity} [post]
func (a *API) CreateRecord(w http.ResponseWriter, r *http.Request) {
	et, ok := entityFromRequest(w, r)
	if !ok {
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || !json.Valid(payload) {
		httpx.Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload")
		return
	}

	rec := &model.Record{
		ID:         uuid.New(),
		EntityType: et,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	// Creates are not intercepted by the scoped client: the tenant id is
	// stamped here, explicitly, for scoped types.
	if et.TenantScoped() {
		tid := tenant.TenantFrom(r).ID
		rec.TenantID = &tid
	}

	scoped := tenant.ScopedFrom(r)
	if err := scoped.Create(r.Context(), rec); err != nil {
		logrus.WithError(err).Error("record create failed")
		httpx.Error(w, http.StatusInternalServerError, "INTERNAL", "request could not be completed")
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

// @Summary Replace a record's payload
// @Tags Records
// @Accept json
// @Param entity path string true "Entity type"
// @Param id path string true "Record UUID"
// @Success 204
// @Router /t/{entity}/{id} [put]
func (a *API) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	et, ok := entityFromRequest(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid record id")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || !json.Valid(payload) {
		httpx.Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload")
		return
	}

	scoped := tenant.ScopedFrom(r)
	n, err := scoped.Update(r.Context(), storage.Query{
		Entity: et,
		Filter: storage.Filter{"id": id},
	}, payload)
	if err != nil {
		logrus.WithError(err).Error("record update failed")
		httpx.Error(w, http.StatusInternalServerError, "INTERNAL", "request could not be completed")
		return
	}
	if n == 0 {
		httpx.Error(w, http.StatusNotFound, "NOT_FOUND", "record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Delete a record
// @Tags Records
// @Param entity path string true "Entity type"
// @Param id path string true "Record UUID"
// @Success 204
// @Router /t/{entity}/{id} [delete]
func (a *API) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	et, ok := entityFromRequest(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid record id")
		return
	}

	scoped := tenant.ScopedFrom(r)
	n, err := scoped.Delete(r.Context(), storage.Query{
		Entity: et,
		Filter: storage.Filter{"id": id},
	})
	if err != nil {
		logrus.WithError(err).Error("record delete failed")
		httpx.Error(w, http.StatusInternalServerError, "INTERNAL", "request could not be completed")
		return
	}
	if n == 0 {
		httpx.Error(w, http.StatusNotFound, "NOT_FOUND", "record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
