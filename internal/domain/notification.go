package domain

import "time"

type NotificationType string

const (
	NotifInfo    NotificationType = "info"
	NotifSuccess NotificationType = "success"
	NotifWarning NotificationType = "warning"
	NotifError   NotificationType = "error"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifInfo, NotifSuccess, NotifWarning, NotifError:
		return true
	}
	return false
}

// Notification targets either a single recipient or everyone. RecipientID
// and Global are mutually exclusive; the service enforces it on create.
type Notification struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	RecipientID string           `json:"recipient_id,omitempty"`
	Global      bool             `json:"global"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

type CreateNotificationRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Message     string           `json:"message" validate:"required"`
	Type        NotificationType `json:"type" validate:"required,oneof=info success warning error"`
	RecipientID string           `json:"recipient_id"`
	Global      bool             `json:"global"`
}
