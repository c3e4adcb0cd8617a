package domain

import (
	"encoding/json"
	"time"
)

type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// ChangeEvent describes a committed mutation on a store table. Consumers
// match on the owner fields; OriginSession identifies the session whose
// request caused the change so it can be excluded from its own feed.
type ChangeEvent struct {
	Table         string          `json:"table"`
	Op            ChangeOp        `json:"op"`
	RowID         string          `json:"row_id"`
	OwnerID       string          `json:"owner_id,omitempty"`
	OwnerEmail    string          `json:"owner_email,omitempty"`
	OriginSession string          `json:"origin_session,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

const (
	TableNotes         = "notes"
	TableProjects      = "projects"
	TableInvoices      = "invoices"
	TableNotifications = "notifications"
)
