package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"websiter-server/internal/domain"
	"websiter-server/internal/events"
	"websiter-server/internal/repository"

	"github.com/google/uuid"
)

type ProjectService struct {
	repo         repository.ProjectRepository
	clientRepo   repository.ClientRepository
	notifService *NotificationService
	bus          events.Bus
}

func NewProjectService(
	repo repository.ProjectRepository,
	clientRepo repository.ClientRepository,
	notifService *NotificationService,
	bus events.Bus,
) *ProjectService {
	return &ProjectService{
		repo:         repo,
		clientRepo:   clientRepo,
		notifService: notifService,
		bus:          bus,
	}
}

func (s *ProjectService) Create(clientID, sessionID string, req *domain.CreateProjectRequest) (*domain.Project, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyText
	}

	if _, err := s.clientRepo.FindByID(clientID); err != nil {
		return nil, ErrNotFound
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now()
	project := &domain.Project{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		Title:       title,
		Status:      domain.StatusNew,
		Priority:    priority,
		Price:       req.Price,
		ContactInfo: req.ContactInfo,
		Purpose:     req.Purpose,
		Features:    req.Features,
		Preferences: req.Preferences,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(project); err != nil {
		return nil, err
	}

	s.publish(domain.OpInsert, project, sessionID)
	return project, nil
}

func (s *ProjectService) Get(id string) (*domain.Project, error) {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return project, nil
}

func (s *ProjectService) ListByClient(clientID string) ([]*domain.Project, error) {
	return s.repo.ListByClient(clientID)
}

func (s *ProjectService) ListAll() ([]*domain.Project, error) {
	return s.repo.ListAll()
}

func (s *ProjectService) Update(id, sessionID string, req *domain.UpdateProjectRequest) (*domain.Project, error) {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrEmptyText
		}
		project.Title = title
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, fmt.Errorf("unknown priority: %q", *req.Priority)
		}
		project.Priority = *req.Priority
	}
	if req.Price != nil {
		project.Price = *req.Price
	}
	if req.ContactInfo != nil {
		project.ContactInfo = req.ContactInfo
	}
	if req.Purpose != nil {
		project.Purpose = req.Purpose
	}
	if req.Features != nil {
		project.Features = req.Features
	}
	if req.Preferences != nil {
		project.Preferences = req.Preferences
	}

	project.UpdatedAt = time.Now()

	if err := s.repo.Update(project); err != nil {
		return nil, err
	}

	s.publish(domain.OpUpdate, project, sessionID)
	return project, nil
}

// UpdateStatus validates the status against the enumeration and the
// transition table before any store call is issued. A rejected status
// never reaches the repository.
func (s *ProjectService) UpdateStatus(id, sessionID string, newStatus domain.ProjectStatus) (*domain.Project, error) {
	if !newStatus.Valid() {
		return nil, &domain.UnknownStatusError{Status: newStatus}
	}

	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	if !domain.CanTransition(project.Status, newStatus) {
		return nil, &domain.IllegalTransitionError{From: project.Status, To: newStatus}
	}

	if err := s.repo.UpdateStatus(id, newStatus); err != nil {
		return nil, err
	}

	project.Status = newStatus
	project.UpdatedAt = time.Now()

	s.publish(domain.OpUpdate, project, sessionID)
	s.notifyStatusChange(project)

	return project, nil
}

func (s *ProjectService) Delete(id, sessionID string) error {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.publish(domain.OpDelete, project, sessionID)
	return nil
}

func (s *ProjectService) notifyStatusChange(project *domain.Project) {
	if s.notifService == nil {
		return
	}

	_, err := s.notifService.Create("", &domain.CreateNotificationRequest{
		Title:       "Project status updated",
		Message:     fmt.Sprintf("%q moved to %s", project.Title, project.Status),
		Type:        domain.NotifInfo,
		RecipientID: project.ClientID,
	})
	if err != nil {
		// Notification is best effort; the status change already committed.
		return
	}
}

func (s *ProjectService) publish(op domain.ChangeOp, project *domain.Project, sessionID string) {
	if s.bus == nil {
		return
	}

	ownerEmail := ""
	if client, err := s.clientRepo.FindByID(project.ClientID); err == nil {
		ownerEmail = client.Email
	}

	payload, _ := json.Marshal(project)
	s.bus.Publish(domain.ChangeEvent{
		Table:         domain.TableProjects,
		Op:            op,
		RowID:         project.ID,
		OwnerID:       project.ClientID,
		OwnerEmail:    ownerEmail,
		OriginSession: sessionID,
		Payload:       payload,
		Timestamp:     time.Now(),
	})
}
