package service

import (
	"errors"
	"testing"

	"websiter-server/internal/domain"
)

type mockProjectRepo struct {
	projects map[string]*domain.Project
	calls    int
}

func newMockProjectRepo(projects ...*domain.Project) *mockProjectRepo {
	m := &mockProjectRepo{projects: make(map[string]*domain.Project)}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *mockProjectRepo) Create(p *domain.Project) error {
	m.calls++
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectRepo) FindByID(id string) (*domain.Project, error) {
	if p, exists := m.projects[id]; exists {
		return p, nil
	}
	return nil, errors.New("project not found")
}

func (m *mockProjectRepo) ListByClient(clientID string) ([]*domain.Project, error) {
	var projects []*domain.Project
	for _, p := range m.projects {
		if p.ClientID == clientID {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

func (m *mockProjectRepo) ListAll() ([]*domain.Project, error) {
	var projects []*domain.Project
	for _, p := range m.projects {
		projects = append(projects, p)
	}
	return projects, nil
}

func (m *mockProjectRepo) Update(p *domain.Project) error {
	m.calls++
	if _, exists := m.projects[p.ID]; !exists {
		return errors.New("project not found")
	}
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectRepo) UpdateStatus(id string, status domain.ProjectStatus) error {
	m.calls++
	p, exists := m.projects[id]
	if !exists {
		return errors.New("project not found")
	}
	p.Status = status
	return nil
}

func (m *mockProjectRepo) Delete(id string) error {
	m.calls++
	if _, exists := m.projects[id]; !exists {
		return errors.New("project not found")
	}
	delete(m.projects, id)
	return nil
}

func TestProjectService_Create(t *testing.T) {
	repo := newMockProjectRepo()
	service := NewProjectService(repo, newMockClientRepo(testClient()), nil, nil)

	project, err := service.Create("client-1", "s1", &domain.CreateProjectRequest{
		Title: "Company website relaunch",
		Price: 4500,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if project.Status != domain.StatusNew {
		t.Errorf("expected status new, got %s", project.Status)
	}
	if project.Priority != domain.PriorityMedium {
		t.Errorf("expected default medium priority, got %s", project.Priority)
	}
}

func TestProjectService_UpdateStatusRejectsUnknown(t *testing.T) {
	project := &domain.Project{ID: "p1", ClientID: "client-1", Title: "Shop", Status: domain.StatusNew}
	repo := newMockProjectRepo(project)
	service := NewProjectService(repo, newMockClientRepo(testClient()), nil, nil)

	_, err := service.UpdateStatus("p1", "s1", "bogus_status")

	var unknownErr *domain.UnknownStatusError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownStatusError, got %v", err)
	}

	// rejected before any store call
	if repo.calls != 0 {
		t.Errorf("expected 0 store calls for unknown status, got %d", repo.calls)
	}
	if project.Status != domain.StatusNew {
		t.Errorf("status must be unchanged, got %s", project.Status)
	}
}

func TestProjectService_UpdateStatusRejectsIllegalTransition(t *testing.T) {
	project := &domain.Project{ID: "p1", ClientID: "client-1", Title: "Shop", Status: domain.StatusNew}
	repo := newMockProjectRepo(project)
	service := NewProjectService(repo, newMockClientRepo(testClient()), nil, nil)

	_, err := service.UpdateStatus("p1", "s1", domain.StatusCompleted)

	var transitionErr *domain.IllegalTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected IllegalTransitionError, got %v", err)
	}
	if project.Status != domain.StatusNew {
		t.Errorf("status must be unchanged, got %s", project.Status)
	}
}

func TestProjectService_UpdateStatusLegalTransition(t *testing.T) {
	project := &domain.Project{ID: "p1", ClientID: "client-1", Title: "Shop", Status: domain.StatusInDesign}
	repo := newMockProjectRepo(project)
	service := NewProjectService(repo, newMockClientRepo(testClient()), nil, nil)

	updated, err := service.UpdateStatus("p1", "s1", domain.StatusReview)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.StatusReview {
		t.Errorf("expected review, got %s", updated.Status)
	}

	// backward step is legal too
	if _, err := service.UpdateStatus("p1", "s1", domain.StatusInDesign); err != nil {
		t.Errorf("backward transition review -> in_design should be legal, got %v", err)
	}
}

func TestProjectService_CompletedIsTerminal(t *testing.T) {
	project := &domain.Project{ID: "p1", ClientID: "client-1", Title: "Shop", Status: domain.StatusCompleted}
	repo := newMockProjectRepo(project)
	service := NewProjectService(repo, newMockClientRepo(testClient()), nil, nil)

	for _, target := range domain.AllStatuses {
		if target == domain.StatusCompleted {
			continue
		}
		if _, err := service.UpdateStatus("p1", "s1", target); err == nil {
			t.Errorf("expected completed -> %s to be rejected", target)
		}
	}
}

func TestProjectService_StatusChangeNotifiesClient(t *testing.T) {
	project := &domain.Project{ID: "p1", ClientID: "client-1", Title: "Shop", Status: domain.StatusNew}
	repo := newMockProjectRepo(project)
	notifRepo := newMockNotificationRepo()
	notifService := NewNotificationService(notifRepo, nil)
	service := NewProjectService(repo, newMockClientRepo(testClient()), notifService, nil)

	if _, err := service.UpdateStatus("p1", "s1", domain.StatusSubmitted); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	notifications, _ := notifRepo.ListForRecipient("client-1")
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification for the client, got %d", len(notifications))
	}
	if notifications[0].Type != domain.NotifInfo {
		t.Errorf("expected info notification, got %s", notifications[0].Type)
	}
}
