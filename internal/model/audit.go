package model

import "time"

// AuditRecord is a document in the audit trail. Unlike ChangeHistory, which
// is feature-scoped and relational, the audit trail captures actions across
// every entity type and lives in the document store.
type AuditRecord struct {
	Action    string         `bson:"action" json:"action"`
	Entity    string         `bson:"entity" json:"entity"`
	EntityID  uint64         `bson:"entity_id" json:"entity_id"`
	UserID    uint64         `bson:"user_id" json:"user_id"`
	Details   map[string]any `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}
