package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"websiter-server/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisBus relays change events through a Redis pub/sub channel so that
// every server instance sees mutations committed by any of them. Local
// delivery also goes through Redis; subscribers receive each event once.
type RedisBus struct {
	client  *redis.Client
	channel string

	mu       sync.RWMutex
	handlers map[int]Handler
	next     int

	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())

	b := &RedisBus{
		client:   client,
		channel:  channel,
		handlers: make(map[int]Handler),
		pubsub:   client.Subscribe(ctx, channel),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go b.receive(ctx)
	return b
}

func (b *RedisBus) Publish(event domain.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(context.Background(), b.channel, data).Err()
}

func (b *RedisBus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

func (b *RedisBus) receive(ctx context.Context) {
	defer close(b.done)

	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("events: dropping malformed change event: %v", err)
				continue
			}

			b.mu.RLock()
			handlers := make([]Handler, 0, len(b.handlers))
			for _, fn := range b.handlers {
				handlers = append(handlers, fn)
			}
			b.mu.RUnlock()

			for _, fn := range handlers {
				fn(event)
			}
		}
	}
}

func (b *RedisBus) Close() error {
	b.cancel()
	err := b.pubsub.Close()
	<-b.done
	return err
}
