package clientsync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrEmptyText is returned when a mutation would store blank note text.
// The remote store is never called in that case.
var ErrEmptyText = errors.New("note text must not be empty")

// NoteCache holds one client's notes and keeps them in sync with the
// remote store. Reads are served from memory; mutations other than Add
// are applied optimistically and rolled back to the exact previous state
// when the store rejects them.
type NoteCache struct {
	store    Store
	clientID string

	mu      sync.RWMutex
	notes   []Note
	loading bool
	loadErr error
}

func NewNoteCache(store Store, clientID string) *NoteCache {
	return &NoteCache{
		store:    store,
		clientID: clientID,
		notes:    []Note{},
	}
}

// Load replaces the collection with the store's current rows. On failure
// the collection is emptied rather than left stale, and the error is kept
// until the next successful load.
func (c *NoteCache) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	notes, err := c.store.FetchNotes(ctx, c.clientID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.notes = []Note{}
		c.loadErr = err
		return err
	}

	c.notes = notes
	c.loadErr = nil
	return nil
}

// Add creates the note on the server first and prepends the returned row.
// Nothing is shown until the store has accepted the note, so a failure
// leaves the collection untouched and needs no rollback.
func (c *NoteCache) Add(ctx context.Context, text string) (*Note, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	note, err := c.store.CreateNote(ctx, c.clientID, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.notes = append([]Note{*note}, c.notes...)
	c.mu.Unlock()

	return note, nil
}

// Toggle flips the completion flag and timestamp in place, then
// confirms with the store. A store failure restores the exact previous
// note and returns the error to the caller.
func (c *NoteCache) Toggle(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotCached
	}
	previous := c.notes[i]
	c.notes[i].Completed = !c.notes[i].Completed
	if c.notes[i].Completed {
		now := time.Now()
		c.notes[i].CompletedAt = &now
	} else {
		c.notes[i].CompletedAt = nil
	}
	c.mu.Unlock()

	updated, err := c.store.ToggleNote(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	j := c.indexOf(id)
	if err != nil {
		if j >= 0 {
			c.notes[j] = previous
		}
		return err
	}
	if j >= 0 && updated != nil {
		c.notes[j] = *updated
	}
	return nil
}

// Update rewrites the note text and refreshes the update timestamp
// optimistically, confirming with the store and reverting on failure.
func (c *NoteCache) Update(ctx context.Context, id, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotCached
	}
	previous := c.notes[i]
	c.notes[i].Text = text
	now := time.Now()
	c.notes[i].UpdatedAt = &now
	c.mu.Unlock()

	updated, err := c.store.UpdateNote(ctx, id, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	j := c.indexOf(id)
	if err != nil {
		if j >= 0 {
			c.notes[j] = previous
		}
		return err
	}
	if j >= 0 && updated != nil {
		c.notes[j] = *updated
	}
	return nil
}

// Remove drops the note immediately and deletes it on the server. When
// the delete fails the note is reinserted at its original position.
func (c *NoteCache) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotCached
	}
	removed := c.notes[i]
	c.notes = append(c.notes[:i], c.notes[i+1:]...)
	c.mu.Unlock()

	err := c.store.DeleteNote(ctx, id)
	if err != nil {
		c.mu.Lock()
		if i > len(c.notes) {
			i = len(c.notes)
		}
		c.notes = append(c.notes[:i], append([]Note{removed}, c.notes[i:]...)...)
		c.mu.Unlock()
		return err
	}

	return nil
}

// Notes returns a snapshot of the collection, newest first.
func (c *NoteCache) Notes() []Note {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make([]Note, len(c.notes))
	copy(snapshot, c.notes)
	return snapshot
}

// Stats derives counts from the cached collection; an empty collection
// yields a zero completion rate.
func (c *NoteCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{Total: len(c.notes)}
	for _, n := range c.notes {
		if n.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = 100 * float64(stats.Completed) / float64(stats.Total)
	}
	return stats
}

func (c *NoteCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error of the last failed load, nil after a successful
// one.
func (c *NoteCache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// ErrNotCached is returned when a mutation names a note the cache does
// not hold.
var ErrNotCached = errors.New("note not in cache")

// indexOf requires c.mu held.
func (c *NoteCache) indexOf(id string) int {
	for i, n := range c.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
