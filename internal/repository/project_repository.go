package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"websiter-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ProjectRepository interface {
	Create(project *domain.Project) error
	FindByID(id string) (*domain.Project, error)
	ListByClient(clientID string) ([]*domain.Project, error)
	ListAll() ([]*domain.Project, error)
	Update(project *domain.Project) error
	UpdateStatus(id string, status domain.ProjectStatus) error
	Delete(id string) error
}

type projectRepository struct {
	client *kivik.Client
	dbName string
}

func NewProjectRepository(client *kivik.Client, dbName string) ProjectRepository {
	return &projectRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *projectRepository) Create(project *domain.Project) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("project:%s", project.ID)
	_, err := db.Put(context.Background(), docID, project)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *projectRepository) FindByID(id string) (*domain.Project, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("project:%s", id)
	row := db.Get(context.Background(), docID)

	var project domain.Project
	if err := row.ScanDoc(&project); err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	return &project, nil
}

func (r *projectRepository) ListByClient(clientID string) ([]*domain.Project, error) {
	return r.list(map[string]interface{}{
		"client_id": clientID,
		"status":    map[string]interface{}{"$exists": true},
		"title":     map[string]interface{}{"$exists": true},
	})
}

func (r *projectRepository) ListAll() ([]*domain.Project, error) {
	return r.list(map[string]interface{}{
		"status": map[string]interface{}{"$exists": true},
		"title":  map[string]interface{}{"$exists": true},
	})
}

func (r *projectRepository) list(selector map[string]interface{}) ([]*domain.Project, error) {
	db := r.client.DB(r.dbName)

	rows := db.Find(context.Background(), map[string]interface{}{"selector": selector})
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var project domain.Project
		if err := rows.ScanDoc(&project); err != nil {
			continue
		}
		projects = append(projects, &project)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	return projects, nil
}

func (r *projectRepository) Update(project *domain.Project) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("project:%s", project.ID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		return fmt.Errorf("failed to fetch existing project for update: %w", err)
	}

	existingDoc["title"] = project.Title
	existingDoc["priority"] = project.Priority
	existingDoc["price"] = project.Price
	existingDoc["contact_info"] = project.ContactInfo
	existingDoc["purpose"] = project.Purpose
	existingDoc["features"] = project.Features
	existingDoc["preferences"] = project.Preferences
	existingDoc["updated_at"] = time.Now()

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// UpdateStatus writes only the status and refreshes the update timestamp.
// Enumeration and transition checks happen in the service before this call.
func (r *projectRepository) UpdateStatus(id string, status domain.ProjectStatus) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("project:%s", id)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		return fmt.Errorf("failed to fetch existing project for status update: %w", err)
	}

	existingDoc["status"] = status
	existingDoc["updated_at"] = time.Now()

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	return nil
}

func (r *projectRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("project:%s", id)

	row := db.Get(context.Background(), docID)

	var existingDoc map[string]interface{}
	if err := row.ScanDoc(&existingDoc); err != nil {
		return err
	}

	rev, _ := existingDoc["_rev"].(string)
	if _, err := db.Delete(context.Background(), docID, rev); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}
