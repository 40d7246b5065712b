package models

import "time"

// AuditAction is the closed vocabulary of privileged actions
type AuditAction string

const (
	ActionUserCreate           AuditAction = "USER_CREATE"
	ActionUserRegister         AuditAction = "USER_REGISTER"
	ActionUserUpdate           AuditAction = "USER_UPDATE"
	ActionUserRoleChange       AuditAction = "USER_ROLE_CHANGE"
	ActionUserBlock            AuditAction = "USER_BLOCK"
	ActionUserUnblock          AuditAction = "USER_UNBLOCK"
	ActionUserDelete           AuditAction = "USER_DELETE"
	ActionContentCreate        AuditAction = "CONTENT_CREATE"
	ActionContentUpdate        AuditAction = "CONTENT_UPDATE"
	ActionContentDelete        AuditAction = "CONTENT_DELETE"
	ActionPlanCreate           AuditAction = "PLAN_CREATE"
	ActionPlanUpdate           AuditAction = "PLAN_UPDATE"
	ActionPlanDelete           AuditAction = "PLAN_DELETE"
	ActionAdCreate             AuditAction = "AD_CREATE"
	ActionAdUpdate             AuditAction = "AD_UPDATE"
	ActionAdDelete             AuditAction = "AD_DELETE"
	ActionSettingsInit         AuditAction = "SETTINGS_INIT"
	ActionSettingsUpdate       AuditAction = "SETTINGS_UPDATE"
	ActionPaymentCreate        AuditAction = "PAYMENT_CREATE"
	ActionPaymentStatusChange  AuditAction = "PAYMENT_STATUS_CHANGE"
	ActionSubscriptionActivate AuditAction = "SUBSCRIPTION_ACTIVATE"
)

var auditActions = map[AuditAction]bool{
	ActionUserCreate: true, ActionUserRegister: true, ActionUserUpdate: true, ActionUserRoleChange: true,
	ActionUserBlock: true, ActionUserUnblock: true, ActionUserDelete: true,
	ActionContentCreate: true, ActionContentUpdate: true, ActionContentDelete: true,
	ActionPlanCreate: true, ActionPlanUpdate: true, ActionPlanDelete: true,
	ActionAdCreate: true, ActionAdUpdate: true, ActionAdDelete: true,
	ActionSettingsInit: true, ActionSettingsUpdate: true,
	ActionPaymentCreate: true, ActionPaymentStatusChange: true, ActionSubscriptionActivate: true,
}

// Valid reports whether a belongs to the audit vocabulary
func (a AuditAction) Valid() bool {
	return auditActions[a]
}

// SystemActor is the actor id recorded for non-interactive mutations
const SystemActor = "SYSTEM"

// AuditLogCapacity is the maximum number of retained audit entries
const AuditLogCapacity = 1000

// AuditLogEntry is an immutable record of a privileged action.
// Seq is the insertion sequence and breaks ties between equal timestamps.
type AuditLogEntry struct {
	ID        string      `json:"id"`
	Seq       int64       `json:"seq"`
	ActorID   string      `json:"actorId"`
	Action    AuditAction `json:"action"`
	Details   string      `json:"details"`
	Timestamp time.Time   `json:"timestamp"`
}
