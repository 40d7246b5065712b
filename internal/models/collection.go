package models

// Collection names a persisted set of entities.
// The values double as storage keys, so they must stay distinct per concern.
type Collection string

const (
	CollectionUsers    Collection = "growup_users"
	CollectionContent  Collection = "growup_content"
	CollectionPlans    Collection = "growup_plans"
	CollectionAds      Collection = "growup_ads"
	CollectionSettings Collection = "growup_settings"
	CollectionPayments Collection = "growup_payments"
	CollectionAuditLog Collection = "growup_audit_log"
)
