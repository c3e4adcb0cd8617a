package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type ProjectStatus string

const (
	StatusNew                    ProjectStatus = "new"
	StatusSubmitted              ProjectStatus = "submitted"
	StatusWaitingForConfirmation ProjectStatus = "waiting_for_confirmation"
	StatusConfirmed              ProjectStatus = "confirmed"
	StatusInProgress             ProjectStatus = "in_progress"
	StatusInDesign               ProjectStatus = "in_design"
	StatusReview                 ProjectStatus = "review"
	StatusFinalDelivery          ProjectStatus = "final_delivery"
	StatusCompleted              ProjectStatus = "completed"
)

// AllStatuses is the closed enumeration; anything else is rejected at the
// write boundary before a store call is issued.
var AllStatuses = []ProjectStatus{
	StatusNew,
	StatusSubmitted,
	StatusWaitingForConfirmation,
	StatusConfirmed,
	StatusInProgress,
	StatusInDesign,
	StatusReview,
	StatusFinalDelivery,
	StatusCompleted,
}

func (s ProjectStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// statusTransitions encodes legal moves: one step forward or back along
// the pipeline, plus review -> in_design for rework. completed is terminal.
var statusTransitions = map[ProjectStatus][]ProjectStatus{
	StatusNew:                    {StatusSubmitted},
	StatusSubmitted:              {StatusNew, StatusWaitingForConfirmation},
	StatusWaitingForConfirmation: {StatusSubmitted, StatusConfirmed},
	StatusConfirmed:              {StatusWaitingForConfirmation, StatusInProgress},
	StatusInProgress:             {StatusConfirmed, StatusInDesign},
	StatusInDesign:               {StatusInProgress, StatusReview},
	StatusReview:                 {StatusInDesign, StatusFinalDelivery},
	StatusFinalDelivery:          {StatusReview, StatusCompleted},
	StatusCompleted:              {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to ProjectStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Project struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id"`
	Title       string          `json:"title"`
	Status      ProjectStatus   `json:"status"`
	Priority    Priority        `json:"priority"`
	Price       float64         `json:"price"`
	ContactInfo json.RawMessage `json:"contact_info,omitempty"`
	Purpose     json.RawMessage `json:"purpose,omitempty"`
	Features    json.RawMessage `json:"features,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CreateProjectRequest struct {
	Title       string          `json:"title" validate:"required,min=2,max=200"`
	Priority    Priority        `json:"priority" validate:"omitempty,oneof=low medium high"`
	Price       float64         `json:"price" validate:"gte=0"`
	ContactInfo json.RawMessage `json:"contact_info"`
	Purpose     json.RawMessage `json:"purpose"`
	Features    json.RawMessage `json:"features"`
	Preferences json.RawMessage `json:"preferences"`
}

type UpdateProjectRequest struct {
	Title       *string         `json:"title"`
	Priority    *Priority       `json:"priority"`
	Price       *float64        `json:"price"`
	ContactInfo json.RawMessage `json:"contact_info"`
	Purpose     json.RawMessage `json:"purpose"`
	Features    json.RawMessage `json:"features"`
	Preferences json.RawMessage `json:"preferences"`
}

type UpdateStatusRequest struct {
	Status ProjectStatus `json:"status" validate:"required"`
}

func (s ProjectStatus) String() string { return string(s) }

// UnknownStatusError is returned before any store call when a caller
// submits a status outside the enumeration.
type UnknownStatusError struct {
	Status ProjectStatus
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown project status: %q", e.Status)
}

// IllegalTransitionError is returned when both statuses are known but the
// adjacency table forbids the move.
type IllegalTransitionError struct {
	From, To ProjectStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition: %s -> %s", e.From, e.To)
}
