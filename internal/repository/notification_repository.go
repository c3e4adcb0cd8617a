package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"websiter-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type NotificationRepository interface {
	Create(notification *domain.Notification) error
	FindByID(id string) (*domain.Notification, error)
	ListForRecipient(recipientID string) ([]*domain.Notification, error)
	MarkRead(id string) error
}

type notificationRepository struct {
	client *kivik.Client
	dbName string
}

func NewNotificationRepository(client *kivik.Client, dbName string) NotificationRepository {
	return &notificationRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *notificationRepository) Create(n *domain.Notification) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("notification:%s", n.ID)
	_, err := db.Put(context.Background(), docID, n)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (r *notificationRepository) FindByID(id string) (*domain.Notification, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("notification:%s", id)
	row := db.Get(context.Background(), docID)

	var n domain.Notification
	if err := row.ScanDoc(&n); err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	return &n, nil
}

// ListForRecipient returns targeted notifications for the recipient plus
// all global ones, newest first.
func (r *notificationRepository) ListForRecipient(recipientID string) ([]*domain.Notification, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"$or": []map[string]interface{}{
				{"recipient_id": recipientID},
				{"global": true},
			},
			"message": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.ScanDoc(&n); err != nil {
			continue
		}
		notifications = append(notifications, &n)
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	return notifications, nil
}

func (r *notificationRepository) MarkRead(id string) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("notification:%s", id)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		return fmt.Errorf("failed to fetch notification for read flag: %w", err)
	}

	existingDoc["read"] = true
	existingDoc["updated_at"] = time.Now()

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}
