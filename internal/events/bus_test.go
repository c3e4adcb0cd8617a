package events

import (
	"testing"
	"time"

	"websiter-server/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDelivers(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var got []domain.ChangeEvent
	unsub := bus.Subscribe(func(e domain.ChangeEvent) {
		got = append(got, e)
	})
	defer unsub()

	err := bus.Publish(domain.ChangeEvent{Table: domain.TableNotes, Op: domain.OpInsert, RowID: "n1"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].RowID)
	assert.Equal(t, domain.OpInsert, got[0].Op)
}

func TestMemoryBusUnsubscribeIdempotent(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	calls := 0
	unsub := bus.Subscribe(func(domain.ChangeEvent) { calls++ })

	unsub()
	unsub() // second call must be a no-op, not a panic

	require.NoError(t, bus.Publish(domain.ChangeEvent{Table: domain.TableNotes}))
	assert.Zero(t, calls)
}

func TestRedisBusRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewRedisBus(client, "websiter:changes:test")
	defer bus.Close()

	received := make(chan domain.ChangeEvent, 1)
	unsub := bus.Subscribe(func(e domain.ChangeEvent) {
		received <- e
	})
	defer unsub()

	event := domain.ChangeEvent{
		Table:         domain.TableNotes,
		Op:            domain.OpUpdate,
		RowID:         "n42",
		OwnerID:       "c1",
		OwnerEmail:    "client@example.com",
		OriginSession: "sess-a",
	}
	require.NoError(t, bus.Publish(event))

	select {
	case got := <-received:
		assert.Equal(t, event.Table, got.Table)
		assert.Equal(t, event.Op, got.Op)
		assert.Equal(t, event.RowID, got.RowID)
		assert.Equal(t, event.OwnerID, got.OwnerID)
		assert.Equal(t, event.OriginSession, got.OriginSession)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event from redis")
	}
}

func TestRedisBusUnsubscribeStopsDelivery(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewRedisBus(client, "websiter:changes:test2")
	defer bus.Close()

	received := make(chan domain.ChangeEvent, 1)
	unsub := bus.Subscribe(func(e domain.ChangeEvent) {
		received <- e
	})

	unsub()
	unsub()

	require.NoError(t, bus.Publish(domain.ChangeEvent{Table: domain.TableProjects, RowID: "p1"}))

	select {
	case <-received:
		t.Fatal("handler invoked after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}
}
