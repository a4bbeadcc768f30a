package api

import (
	"github.com/go-chi/chi/v5"

	"moveops/internal/auth"
	"moveops/internal/manager"
	"moveops/internal/signin"
	"moveops/internal/storage"
	"moveops/internal/tenant"
)

type API struct {
	Routers  chi.Router
	Tenants  *manager.TenantService
	Resolver *tenant.Resolver
	Admin    *auth.AdminAuthorizer
	Gate     *signin.Gate
	Storage  *storage.Storage
}

func NewAPI(
	tenants *manager.TenantService,
	resolver *tenant.Resolver,
	admin *auth.AdminAuthorizer,
	gate *signin.Gate,
	db *storage.Storage,
) *API {
	return &API{
		Routers:  chi.NewRouter(),
		Tenants:  tenants,
		Resolver: resolver,
		Admin:    admin,
		Gate:     gate,
		Storage:  db,
	}
}
