package service

import (
	"encoding/json"
	"strings"
	"time"

	"websiter-server/internal/domain"
	"websiter-server/internal/events"
	"websiter-server/internal/repository"

	"github.com/google/uuid"
)

type NoteService struct {
	repo       repository.NoteRepository
	clientRepo repository.ClientRepository
	bus        events.Bus
}

func NewNoteService(repo repository.NoteRepository, clientRepo repository.ClientRepository, bus events.Bus) *NoteService {
	return &NoteService{
		repo:       repo,
		clientRepo: clientRepo,
		bus:        bus,
	}
}

// Create rejects blank text before touching the store. The stored
// client_email copy comes from the client record at write time.
func (s *NoteService) Create(createdBy, sessionID string, req *domain.CreateNoteRequest) (*domain.Note, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	client, err := s.clientRepo.FindByID(req.ClientID)
	if err != nil {
		return nil, ErrNotFound
	}

	note := &domain.Note{
		ID:          uuid.New().String(),
		ClientID:    client.ID,
		ClientEmail: client.Email,
		Text:        text,
		Completed:   false,
		CreatedAt:   time.Now(),
		CreatedBy:   createdBy,
	}

	if err := s.repo.Create(note); err != nil {
		return nil, err
	}

	s.publish(domain.OpInsert, note, sessionID)
	return note, nil
}

func (s *NoteService) ListByClient(clientID string) ([]*domain.Note, error) {
	return s.repo.ListByClient(clientID)
}

func (s *NoteService) Get(id string) (*domain.Note, error) {
	note, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return note, nil
}

// Toggle flips the completion flag, setting the completion timestamp when
// a note becomes done and clearing it when it is reopened.
func (s *NoteService) Toggle(id, sessionID string) (*domain.Note, error) {
	note, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	note.Completed = !note.Completed
	if note.Completed {
		now := time.Now()
		note.CompletedAt = &now
	} else {
		note.CompletedAt = nil
	}
	now := time.Now()
	note.UpdatedAt = &now

	if err := s.repo.Update(note); err != nil {
		return nil, err
	}

	s.publish(domain.OpUpdate, note, sessionID)
	return note, nil
}

func (s *NoteService) Update(id, sessionID string, req *domain.UpdateNoteRequest) (*domain.Note, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	note, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	note.Text = text
	now := time.Now()
	note.UpdatedAt = &now

	if err := s.repo.Update(note); err != nil {
		return nil, err
	}

	s.publish(domain.OpUpdate, note, sessionID)
	return note, nil
}

func (s *NoteService) Delete(id, sessionID string) error {
	note, err := s.repo.FindByID(id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.publish(domain.OpDelete, note, sessionID)
	return nil
}

// Stats derives counts from the current collection; zero notes means a
// zero completion rate, not a division by zero.
func (s *NoteService) Stats(clientID string) (*domain.NoteStats, error) {
	notes, err := s.repo.ListByClient(clientID)
	if err != nil {
		return nil, err
	}

	stats := &domain.NoteStats{Total: len(notes)}
	for _, n := range notes {
		if n.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = 100 * float64(stats.Completed) / float64(stats.Total)
	}

	return stats, nil
}

func (s *NoteService) publish(op domain.ChangeOp, note *domain.Note, sessionID string) {
	if s.bus == nil {
		return
	}

	payload, _ := json.Marshal(note)
	s.bus.Publish(domain.ChangeEvent{
		Table:         domain.TableNotes,
		Op:            op,
		RowID:         note.ID,
		OwnerID:       note.ClientID,
		OwnerEmail:    note.ClientEmail,
		OriginSession: sessionID,
		Payload:       payload,
		Timestamp:     time.Now(),
	})
}
