package domain

import "time"

// Note is an internal remark an admin keeps about a client. The owning
// client is addressed by ClientID; ClientEmail is a denormalized display
// copy and is never used as a query key.
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

type CreateNoteRequest struct {
	ClientID string `json:"client_id" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

type UpdateNoteRequest struct {
	Text string `json:"text" validate:"required"`
}

// NoteStats is derived from a client's note collection, never stored.
type NoteStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}
