package clientsync

import (
	"bytes"
	"encoding/json"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSFeed consumes the server's websocket change stream and fans events
// out to subscribed handlers. The server may batch several messages into
// one frame separated by newlines; the read loop splits them.
type WSFeed struct {
	conn *websocket.Conn

	mu        sync.Mutex
	handlers  map[int]func(Change)
	nextID    int
	closeOnce sync.Once
	done      chan struct{}
}

// DialWSFeed connects to the server's /ws endpoint. The session id must
// be the same one the HTTPStore sends, otherwise the feed would echo the
// caller's own mutations back.
func DialWSFeed(wsURL, token, sessionID string) (*WSFeed, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	f := &WSFeed{
		conn:     conn,
		handlers: make(map[int]func(Change)),
		done:     make(chan struct{}),
	}
	go f.readLoop()
	return f, nil
}

// Subscribe registers a handler for change events. The returned function
// removes it; calling it more than once is harmless.
func (f *WSFeed) Subscribe(handler func(Change)) (func(), error) {
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
			f.mu.Unlock()
		})
	}, nil
}

func (f *WSFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		f.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = f.conn.Close()
		<-f.done
	})
	return err
}

func (f *WSFeed) readLoop() {
	defer close(f.done)
	for {
		_, frame, err := f.conn.ReadMessage()
		if err != nil {
			return
		}

		for _, raw := range bytes.Split(frame, []byte{'\n'}) {
			if len(bytes.TrimSpace(raw)) == 0 {
				continue
			}
			f.dispatch(raw)
		}
	}
}

type feedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (f *WSFeed) dispatch(raw []byte) {
	var msg feedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("clientsync: dropping malformed frame: %v", err)
		return
	}

	if msg.Type != "change" {
		return
	}

	var change Change
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		log.Printf("clientsync: dropping malformed change: %v", err)
		return
	}

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
