// internal/model/entity.go
package model

// EntityType is the closed set of record types the platform stores.
type EntityType string

const (
	EntityCustomer       EntityType = "customer"
	EntityJob            EntityType = "job"
	EntityPricingQuote   EntityType = "pricing_quote"
	EntitySettlement     EntityType = "settlement"
	EntityCrewMember     EntityType = "crew_member"
	EntityVehicle        EntityType = "vehicle"
	EntityInventoryRoom  EntityType = "inventory_room"
	EntityLeadSource     EntityType = "lead_source"
	EntityBillingAccount EntityType = "billing_account"
	EntityRateTable      EntityType = "rate_table"

	// Child types: scoped transitively through their parent aggregate,
	// never carrying a tenant id of their own.
	EntityJobItem       EntityType = "job_item"
	EntityInventoryItem EntityType = "inventory_item"
)

// TenantScoped reports whether every row of this type belongs to exactly one
// tenant. Only aggregate roots are scoped directly; child types inherit scope
// through their parent relation. The switch is exhaustive over the closed set
// so a new type cannot be forgotten silently.
func (e EntityType) TenantScoped() bool {
	switch e {
	case EntityCustomer, EntityJob, EntityPricingQuote, EntitySettlement,
		EntityCrewMember, EntityVehicle, EntityInventoryRoom,
		EntityLeadSource, EntityBillingAccount, EntityRateTable:
		return true
	case EntityJobItem, EntityInventoryItem:
		return false
	}
	return false
}

func (e EntityType) IsValid() bool {
	switch e {
	case EntityCustomer, EntityJob, EntityPricingQuote, EntitySettlement,
		EntityCrewMember, EntityVehicle, EntityInventoryRoom,
		EntityLeadSource, EntityBillingAccount, EntityRateTable,
		EntityJobItem, EntityInventoryItem:
		return true
	}
	return false
}

// EntityTypes lists every known type, scoped and unscoped.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityCustomer, EntityJob, EntityPricingQuote, EntitySettlement,
		EntityCrewMember, EntityVehicle, EntityInventoryRoom,
		EntityLeadSource, EntityBillingAccount, EntityRateTable,
		EntityJobItem, EntityInventoryItem,
	}
}
