package service

import (
	"encoding/json"
	"time"

	"websiter-server/internal/domain"
	"websiter-server/internal/events"
	"websiter-server/internal/repository"

	"github.com/google/uuid"
)

type NotificationService struct {
	repo repository.NotificationRepository
	bus  events.Bus
}

func NewNotificationService(repo repository.NotificationRepository, bus events.Bus) *NotificationService {
	return &NotificationService{
		repo: repo,
		bus:  bus,
	}
}

// Create enforces the targeted-XOR-global convention: exactly one of
// RecipientID and Global must be set.
func (s *NotificationService) Create(sessionID string, req *domain.CreateNotificationRequest) (*domain.Notification, error) {
	if req.RecipientID != "" && req.Global {
		return nil, ErrRecipientConflict
	}
	if req.RecipientID == "" && !req.Global {
		return nil, ErrNoRecipient
	}

	n := &domain.Notification{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		RecipientID: req.RecipientID,
		Global:      req.Global,
		Read:        false,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(n); err != nil {
		return nil, err
	}

	s.publish(domain.OpInsert, n, sessionID)
	return n, nil
}

func (s *NotificationService) ListForUser(userID string) ([]*domain.Notification, error) {
	return s.repo.ListForRecipient(userID)
}

// MarkRead lets the recipient (or an admin) flip the read flag; global
// notifications can be marked by anyone who received them.
func (s *NotificationService) MarkRead(id, userID string, isAdmin bool) error {
	n, err := s.repo.FindByID(id)
	if err != nil {
		return ErrNotFound
	}

	if !isAdmin && !n.Global && n.RecipientID != userID {
		return ErrForbidden
	}

	if err := s.repo.MarkRead(id); err != nil {
		return err
	}

	n.Read = true
	s.publish(domain.OpUpdate, n, "")
	return nil
}

func (s *NotificationService) UnreadCount(userID string) (int, error) {
	notifications, err := s.repo.ListForRecipient(userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *NotificationService) publish(op domain.ChangeOp, n *domain.Notification, sessionID string) {
	if s.bus == nil {
		return
	}

	payload, _ := json.Marshal(n)
	s.bus.Publish(domain.ChangeEvent{
		Table:         domain.TableNotifications,
		Op:            op,
		RowID:         n.ID,
		OwnerID:       n.RecipientID,
		OriginSession: sessionID,
		Payload:       payload,
		Timestamp:     time.Now(),
	})
}
