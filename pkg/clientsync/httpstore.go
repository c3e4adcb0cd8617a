package clientsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPStore talks to the server's note API. Every request carries the
// bearer token and the session id, so mutations made through this store
// are excluded from the session's own change feed.
type HTTPStore struct {
	baseURL   string
	token     string
	sessionID string
	client    *http.Client
}

func NewHTTPStore(baseURL, token, sessionID string) *HTTPStore {
	return &HTTPStore{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		sessionID: sessionID,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (s *HTTPStore) FetchNotes(ctx context.Context, clientID string) ([]Note, error) {
	var notes []Note
	err := s.do(ctx, http.MethodGet, fmt.Sprintf("/clients/%s/notes", clientID), nil, &notes)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

func (s *HTTPStore) CreateNote(ctx context.Context, clientID, text string) (*Note, error) {
	body := map[string]string{"client_id": clientID, "text": text}
	var note Note
	if err := s.do(ctx, http.MethodPost, "/notes", body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *HTTPStore) ToggleNote(ctx context.Context, id string) (*Note, error) {
	var note Note
	if err := s.do(ctx, http.MethodPost, "/notes/"+id+"/toggle", nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *HTTPStore) UpdateNote(ctx context.Context, id, text string) (*Note, error) {
	body := map[string]string{"text": text}
	var note Note
	if err := s.do(ctx, http.MethodPut, "/notes/"+id, body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *HTTPStore) DeleteNote(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/notes/"+id, nil, nil)
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if s.sessionID != "" {
		req.Header.Set("X-Session-ID", s.sessionID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, msg)
	}

	if out != nil && env.Data != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
