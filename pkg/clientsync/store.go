// Package clientsync is the client-side companion of the change feed: a
// note cache that applies mutations optimistically against a remote
// store, rolls back on failure, and reconciles with change events pushed
// over the feed.
package clientsync

import (
	"context"
	"encoding/json"
	"time"
)

// Note mirrors the server's wire representation of a note.
type Note struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	ClientEmail string     `json:"client_email,omitempty"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

// Stats is derived from the cached collection, never fetched.
type Stats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}

// OwnerKey identifies whose rows a consumer cares about. Either field may
// be empty; a row matches when its owner id or owner email equals the
// corresponding non-empty key field.
type OwnerKey struct {
	ID    string
	Email string
}

// Matches reports whether a row owned by (ownerID, ownerEmail) belongs to
// this key. It is a pure predicate; no I/O, no clock.
func (k OwnerKey) Matches(ownerID, ownerEmail string) bool {
	if k.ID != "" && ownerID == k.ID {
		return true
	}
	if k.Email != "" && ownerEmail != "" && ownerEmail == k.Email {
		return true
	}
	return false
}

// Change is one event from the feed, matching the server's change
// message payload.
type Change struct {
	Table         string          `json:"table"`
	Op            string          `json:"op"`
	RowID         string          `json:"row_id"`
	OwnerID       string          `json:"owner_id,omitempty"`
	OwnerEmail    string          `json:"owner_email,omitempty"`
	OriginSession string          `json:"origin_session,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

const (
	TableNotes = "notes"

	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Store is the remote note API the cache mutates against.
type Store interface {
	FetchNotes(ctx context.Context, clientID string) ([]Note, error)
	CreateNote(ctx context.Context, clientID, text string) (*Note, error)
	ToggleNote(ctx context.Context, id string) (*Note, error)
	UpdateNote(ctx context.Context, id, text string) (*Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Feed delivers change events. Subscribe returns an unsubscribe function
// that is safe to call more than once; calls after the first do nothing.
type Feed interface {
	Subscribe(handler func(Change)) (unsubscribe func(), err error)
}
