package service

import (
	"errors"
	"testing"
	"time"

	"websiter-server/internal/domain"
	"websiter-server/internal/events"
)

type mockNoteRepo struct {
	notes map[string]*domain.Note
	calls int
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{notes: make(map[string]*domain.Note)}
}

func (m *mockNoteRepo) Create(note *domain.Note) error {
	m.calls++
	m.notes[note.ID] = note
	return nil
}

func (m *mockNoteRepo) FindByID(id string) (*domain.Note, error) {
	if n, exists := m.notes[id]; exists {
		return n, nil
	}
	return nil, errors.New("note not found")
}

func (m *mockNoteRepo) ListByClient(clientID string) ([]*domain.Note, error) {
	var notes []*domain.Note
	for _, n := range m.notes {
		if n.ClientID == clientID {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (m *mockNoteRepo) Update(note *domain.Note) error {
	m.calls++
	if _, exists := m.notes[note.ID]; exists {
		m.notes[note.ID] = note
		return nil
	}
	return errors.New("note not found")
}

func (m *mockNoteRepo) Delete(id string) error {
	m.calls++
	if _, exists := m.notes[id]; exists {
		delete(m.notes, id)
		return nil
	}
	return errors.New("note not found")
}

type mockClientRepo struct {
	clients map[string]*domain.Client
}

func newMockClientRepo(clients ...*domain.Client) *mockClientRepo {
	m := &mockClientRepo{clients: make(map[string]*domain.Client)}
	for _, c := range clients {
		m.clients[c.ID] = c
	}
	return m
}

func (m *mockClientRepo) Create(c *domain.Client) error {
	m.clients[c.ID] = c
	return nil
}

func (m *mockClientRepo) FindByID(id string) (*domain.Client, error) {
	if c, exists := m.clients[id]; exists {
		return c, nil
	}
	return nil, errors.New("client not found")
}

func (m *mockClientRepo) FindByEmail(email string) (*domain.Client, error) {
	for _, c := range m.clients {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, errors.New("client not found")
}

func (m *mockClientRepo) List() ([]*domain.Client, error) {
	var clients []*domain.Client
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	return clients, nil
}

func (m *mockClientRepo) Update(c *domain.Client) error {
	if _, exists := m.clients[c.ID]; !exists {
		return errors.New("client not found")
	}
	m.clients[c.ID] = c
	return nil
}

func (m *mockClientRepo) EmailExists(email string) (bool, error) {
	_, err := m.FindByEmail(email)
	return err == nil, nil
}

func testClient() *domain.Client {
	return &domain.Client{
		ID:    "client-1",
		Name:  "Acme GmbH",
		Email: "acme@example.com",
		Role:  domain.RoleClient,
	}
}

func TestNoteService_Create(t *testing.T) {
	repo := newMockNoteRepo()
	bus := events.NewMemoryBus()
	service := NewNoteService(repo, newMockClientRepo(testClient()), bus)

	var published []domain.ChangeEvent
	bus.Subscribe(func(e domain.ChangeEvent) { published = append(published, e) })

	note, err := service.Create("admin-1", "sess-1", &domain.CreateNoteRequest{
		ClientID: "client-1",
		Text:     "  call client about homepage  ",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if note.ID == "" {
		t.Error("expected note ID to be generated")
	}
	if note.Text != "call client about homepage" {
		t.Errorf("expected trimmed text, got %q", note.Text)
	}
	if note.ClientEmail != "acme@example.com" {
		t.Errorf("expected denormalized client email, got %q", note.ClientEmail)
	}
	if note.Completed {
		t.Error("new note must start incomplete")
	}

	if len(published) != 1 {
		t.Fatalf("expected 1 change event, got %d", len(published))
	}
	if published[0].Op != domain.OpInsert || published[0].OwnerID != "client-1" {
		t.Errorf("unexpected change event: %+v", published[0])
	}
	if published[0].OriginSession != "sess-1" {
		t.Errorf("expected origin session sess-1, got %q", published[0].OriginSession)
	}
}

func TestNoteService_CreateRejectsBlankText(t *testing.T) {
	repo := newMockNoteRepo()
	service := NewNoteService(repo, newMockClientRepo(testClient()), nil)

	_, err := service.Create("admin-1", "sess-1", &domain.CreateNoteRequest{
		ClientID: "client-1",
		Text:     "   ",
	})
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}

	if repo.calls != 0 {
		t.Errorf("expected no store calls for blank text, got %d", repo.calls)
	}
}

func TestNoteService_Toggle(t *testing.T) {
	repo := newMockNoteRepo()
	service := NewNoteService(repo, newMockClientRepo(testClient()), nil)

	note, _ := service.Create("admin-1", "s1", &domain.CreateNoteRequest{ClientID: "client-1", Text: "send invoice"})

	toggled, err := service.Toggle(note.ID, "s1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !toggled.Completed {
		t.Error("expected note to be completed")
	}
	if toggled.CompletedAt == nil {
		t.Error("expected completion timestamp to be set")
	}

	reopened, err := service.Toggle(note.ID, "s1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reopened.Completed {
		t.Error("expected note to be reopened")
	}
	if reopened.CompletedAt != nil {
		t.Error("expected completion timestamp to be cleared")
	}
}

func TestNoteService_UpdateRejectsBlankText(t *testing.T) {
	repo := newMockNoteRepo()
	service := NewNoteService(repo, newMockClientRepo(testClient()), nil)

	note, _ := service.Create("admin-1", "s1", &domain.CreateNoteRequest{ClientID: "client-1", Text: "original"})
	callsAfterCreate := repo.calls

	_, err := service.Update(note.ID, "s1", &domain.UpdateNoteRequest{Text: "   "})
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if repo.calls != callsAfterCreate {
		t.Error("blank update must not reach the store")
	}

	stored, _ := repo.FindByID(note.ID)
	if stored.Text != "original" {
		t.Errorf("expected text unchanged, got %q", stored.Text)
	}
}

func TestNoteService_Delete(t *testing.T) {
	repo := newMockNoteRepo()
	service := NewNoteService(repo, newMockClientRepo(testClient()), nil)

	note, _ := service.Create("admin-1", "s1", &domain.CreateNoteRequest{ClientID: "client-1", Text: "obsolete"})

	if err := service.Delete(note.ID, "s1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := repo.FindByID(note.ID); err == nil {
		t.Error("expected note to be gone")
	}
}

func TestNoteService_Stats(t *testing.T) {
	repo := newMockNoteRepo()
	service := NewNoteService(repo, newMockClientRepo(testClient()), nil)

	empty, err := service.Stats("client-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if empty.Total != 0 || empty.CompletionRate != 0 {
		t.Errorf("empty stats should be all zero, got %+v", empty)
	}

	for i, text := range []string{"a", "b", "c", "d"} {
		n, _ := service.Create("admin-1", "s1", &domain.CreateNoteRequest{ClientID: "client-1", Text: text})
		if i < 3 {
			service.Toggle(n.ID, "s1")
		}
	}

	stats, err := service.Stats("client-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("expected total 4, got %d", stats.Total)
	}
	if stats.Completed != 3 {
		t.Errorf("expected completed 3, got %d", stats.Completed)
	}
	if stats.Pending != 1 {
		t.Errorf("expected pending 1, got %d", stats.Pending)
	}
	if stats.CompletionRate != 75 {
		t.Errorf("expected completion rate 75, got %v", stats.CompletionRate)
	}
}

func TestNoteService_ToggleSetsUpdatedAt(t *testing.T) {
	repo := newMockNoteRepo()
	service := NewNoteService(repo, newMockClientRepo(testClient()), nil)

	note, _ := service.Create("admin-1", "s1", &domain.CreateNoteRequest{ClientID: "client-1", Text: "check dns"})

	before := time.Now().Add(-time.Second)
	toggled, _ := service.Toggle(note.ID, "s1")

	if toggled.UpdatedAt == nil || toggled.UpdatedAt.Before(before) {
		t.Error("expected toggle to refresh updated_at")
	}
}
