package repository

import (
	"context"
	"fmt"

	"websiter-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ClientRepository interface {
	Create(client *domain.Client) error
	FindByID(id string) (*domain.Client, error)
	FindByEmail(email string) (*domain.Client, error)
	List() ([]*domain.Client, error)
	Update(client *domain.Client) error
	EmailExists(email string) (bool, error)
}

type clientRepository struct {
	client *kivik.Client
	dbName string
}

func NewClientRepository(client *kivik.Client, dbName string) ClientRepository {
	return &clientRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *clientRepository) Create(c *domain.Client) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("client:%s", c.ID)
	_, err := db.Put(context.Background(), docID, c)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

func (r *clientRepository) FindByID(id string) (*domain.Client, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("client:%s", id)
	row := db.Get(context.Background(), docID)

	var c domain.Client
	if err := row.ScanDoc(&c); err != nil {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	return &c, nil
}

func (r *clientRepository) FindByEmail(email string) (*domain.Client, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"email": email,
			"role":  map[string]interface{}{"$exists": true},
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query client by email: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("client not found")
	}

	var c domain.Client
	if err := rows.ScanDoc(&c); err != nil {
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}

	return &c, nil
}

func (r *clientRepository) List() ([]*domain.Client, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"role": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.ScanDoc(&c); err != nil {
			continue
		}
		clients = append(clients, &c)
	}

	return clients, nil
}

func (r *clientRepository) Update(c *domain.Client) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("client:%s", c.ID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		return fmt.Errorf("failed to fetch existing client for update: %w", err)
	}

	existingDoc["name"] = c.Name
	existingDoc["company"] = c.Company
	existingDoc["phone"] = c.Phone
	existingDoc["updated_at"] = c.UpdatedAt
	if c.Password != "" {
		existingDoc["password"] = c.Password
	}

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

func (r *clientRepository) EmailExists(email string) (bool, error) {
	_, err := r.FindByEmail(email)
	if err != nil {
		return false, nil
	}
	return true, nil
}
