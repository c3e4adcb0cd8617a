package clientsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	mu         sync.Mutex
	handlers   map[int]func(Change)
	nextID     int
	unsubCalls int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{handlers: make(map[int]func(Change))}
}

func (f *fakeFeed) Subscribe(handler func(Change)) (func(), error) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.handlers[id] = handler
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.handlers, id)
			f.unsubCalls++
			f.mu.Unlock()
		})
	}, nil
}

func (f *fakeFeed) emit(change Change) {
	f.mu.Lock()
	handlers := make([]func(Change), 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(change)
	}
}

func (f *fakeFeed) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

func (s *fakeStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

func noteChange(ownerID, ownerEmail, originSession string) Change {
	return Change{
		Table:         TableNotes,
		Op:            OpUpdate,
		RowID:         "seed0",
		OwnerID:       ownerID,
		OwnerEmail:    ownerEmail,
		OriginSession: originSession,
		Timestamp:     time.Now(),
	}
}

func startReconciler(t *testing.T, store *fakeStore, feed *fakeFeed) *Reconciler {
	t.Helper()
	cache := NewNoteCache(store, "c1")
	r := NewReconciler(cache, feed, OwnerKey{ID: "c1", Email: "c1@websiter.dev"}, "session-a")
	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(r.Stop)
	return r
}

func TestStartLoadsCollection(t *testing.T) {
	store := seededStore("hello")
	r := startReconciler(t, store, newFakeFeed())

	require.Len(t, r.cache.Notes(), 1)
	assert.Equal(t, 1, store.fetchCount())
}

func TestRemoteChangeTriggersFullReload(t *testing.T) {
	store := seededStore("hello")
	feed := newFakeFeed()
	startReconciler(t, store, feed)
	require.Equal(t, 1, store.fetchCount())

	feed.emit(noteChange("c1", "", "session-b"))

	require.Eventually(t, func() bool {
		return store.fetchCount() >= 2
	}, 2*time.Second, 10*time.Millisecond, "remote-origin change must re-fetch the collection")
}

func TestEmailKeyedChangeTriggersReload(t *testing.T) {
	store := seededStore("hello")
	feed := newFakeFeed()
	startReconciler(t, store, feed)

	feed.emit(noteChange("", "c1@websiter.dev", "session-b"))

	require.Eventually(t, func() bool {
		return store.fetchCount() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOwnSessionChangeIgnored(t *testing.T) {
	store := seededStore("hello")
	feed := newFakeFeed()
	startReconciler(t, store, feed)

	feed.emit(noteChange("c1", "", "session-a"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, store.fetchCount(), "the session's own mutation must not bounce back")
}

func TestForeignOwnerChangeIgnored(t *testing.T) {
	store := seededStore("hello")
	feed := newFakeFeed()
	startReconciler(t, store, feed)

	feed.emit(noteChange("someone-else", "other@websiter.dev", "session-b"))
	feed.emit(Change{Table: "projects", OwnerID: "c1", OriginSession: "session-b"})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, store.fetchCount())
}

func TestStopUnsubscribesOnce(t *testing.T) {
	store := seededStore("hello")
	feed := newFakeFeed()
	cache := NewNoteCache(store, "c1")
	r := NewReconciler(cache, feed, OwnerKey{ID: "c1"}, "session-a")
	require.NoError(t, r.Start(context.Background()))
	require.Equal(t, 1, feed.subscriberCount())

	r.Stop()
	r.Stop()

	assert.Zero(t, feed.subscriberCount())
	assert.Equal(t, 1, feed.unsubCalls, "a second Stop must not unsubscribe again")
}

func TestStopWithoutStartReturns(t *testing.T) {
	store := seededStore("hello")
	cache := NewNoteCache(store, "c1")
	r := NewReconciler(cache, newFakeFeed(), OwnerKey{ID: "c1"}, "session-a")

	finished := make(chan struct{})
	go func() {
		r.Stop()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Stop on a never-started reconciler must return")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	feed := newFakeFeed()
	unsubscribe, err := feed.Subscribe(func(Change) {})
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()
	unsubscribe()

	assert.Equal(t, 1, feed.unsubCalls)
	assert.Zero(t, feed.subscriberCount())
}

// The full loop: a toggle that the store rejects leaves the collection
// exactly as it was, while a concurrent remote change still reconciles.
func TestToggleFailureThenRemoteReconcile(t *testing.T) {
	store := seededStore("shared task")
	feed := newFakeFeed()
	r := startReconciler(t, store, feed)
	before := r.cache.Notes()

	store.failToggle = true
	require.Error(t, r.cache.Toggle(context.Background(), "seed0"))
	assert.Equal(t, before, r.cache.Notes())
	store.failToggle = false

	// Another session completes the note; our cache catches up in full.
	store.mu.Lock()
	store.notes[0].Completed = true
	store.mu.Unlock()
	feed.emit(noteChange("c1", "", "session-b"))

	require.Eventually(t, func() bool {
		notes := r.cache.Notes()
		return len(notes) == 1 && notes[0].Completed
	}, 2*time.Second, 10*time.Millisecond)
}
