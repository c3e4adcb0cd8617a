package clientsync

import (
	"context"
	"sync"
)

// Reconciler ties a NoteCache to a change feed. It loads the collection
// on start, then reloads it in full whenever the feed reports a note
// change for the watched owner that originated in some other session.
// A reload fetches everything rather than patching the one row, so the
// cache converges even when events were missed.
type Reconciler struct {
	cache   *NoteCache
	feed    Feed
	owner   OwnerKey
	session string

	unsubscribe func()
	trigger     chan struct{}
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	cancel      context.CancelFunc
}

func NewReconciler(cache *NoteCache, feed Feed, owner OwnerKey, sessionID string) *Reconciler {
	return &Reconciler{
		cache:   cache,
		feed:    feed,
		owner:   owner,
		session: sessionID,
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start performs the initial load and subscribes to the feed. The initial
// load error is returned but the subscription is kept either way; a later
// event will retry the load.
func (r *Reconciler) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	unsubscribe, err := r.feed.Subscribe(r.handle)
	if err != nil {
		r.cancel()
		close(r.done)
		return err
	}
	r.unsubscribe = unsubscribe

	r.started = true
	go r.run(ctx)

	return r.cache.Load(ctx)
}

// Stop unsubscribes and halts the reload worker. It returns immediately
// when Start never ran; calling it again, or calling the unsubscribe path
// twice through any route, has no effect.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		if r.unsubscribe != nil {
			r.unsubscribe()
		}
		if r.cancel != nil {
			r.cancel()
		}
		if r.started {
			<-r.done
		}
	})
}

// handle filters feed events down to remote-origin note changes for the
// watched owner. Matching events coalesce into a single pending reload.
func (r *Reconciler) handle(change Change) {
	if change.Table != TableNotes {
		return
	}
	if r.session != "" && change.OriginSession == r.session {
		return
	}
	if !r.owner.Matches(change.OwnerID, change.OwnerEmail) {
		return
	}

	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
			// Errors stay visible through cache.Err; the next event
			// triggers another attempt.
			_ = r.cache.Load(ctx)
		}
	}
}
