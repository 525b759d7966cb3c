package models

import (
	"time"

	"gorm.io/datatypes"
)

// Entity types that can appear in the audit ledger
const (
	EntityTypeCustomer        = "customer"
	EntityTypeLoanApplication = "loan_application"
	EntityTypeSystem          = "system"
)

// Canonical audit action names
const (
	ActionLoanScored     = "LOAN_SCORED"
	ActionConsentViewed  = "CONSENT_VIEWED"
	ActionConsentUpdated = "CONSENT_UPDATED"
	ActionAuditViewed    = "AUDIT_VIEWED"
	ActionAuditExported  = "AUDIT_EXPORTED"
)

// DefaultActor is recorded as performed_by when the caller is unauthenticated
const DefaultActor = "demo-actor"

// AuditEntry is one link of the hash-chained audit ledger.
// Rows are never updated or deleted once inserted.
type AuditEntry struct {
	Seq         int64          `gorm:"primaryKey;autoIncrement" json:"seq"`
	ID          string         `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	EntityType  string         `gorm:"size:32;not null" json:"entityType"`
	EntityID    string         `gorm:"size:128;not null;index" json:"entityId"`
	Action      string         `gorm:"size:64;not null" json:"action"`
	PerformedBy string         `gorm:"size:128;not null" json:"performedBy"`
	Details     datatypes.JSON `gorm:"type:jsonb;not null" json:"details"`
	Hash        string         `gorm:"size:128;not null;uniqueIndex" json:"hash"`
	PrevHash    *string        `gorm:"size:128;uniqueIndex" json:"prevHash"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name for AuditEntry
func (AuditEntry) TableName() string {
	return "audit_log"
}
