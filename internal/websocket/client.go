package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection. SessionID identifies the browser
// session so a connection never receives echoes of its own mutations.
// The watch key is the owner key whose change events the connection gets.
type Client struct {
	ID        string
	UserID    string
	SessionID string
	IsAdmin   bool
	Conn      *websocket.Conn
	Manager   *Manager
	Send      chan []byte

	mu         sync.RWMutex
	watchID    string
	watchEmail string
}

func NewClient(id, userID, sessionID string, isAdmin bool, watchID, watchEmail string, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:         id,
		UserID:     userID,
		SessionID:  sessionID,
		IsAdmin:    isAdmin,
		Conn:       conn,
		Manager:    manager,
		Send:       make(chan []byte, 256),
		watchID:    watchID,
		watchEmail: watchEmail,
	}
}

func (c *Client) WatchKey() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.watchID, c.watchEmail
}

func (c *Client) SetWatchKey(ownerID, ownerEmail string) {
	c.mu.Lock()
	c.watchID = ownerID
	c.watchEmail = ownerEmail
	c.mu.Unlock()
}

func (c *Client) ReadPump() {
	defer func() {
		c.Manager.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		c.Manager.HandleMessage <- &ClientMessage{
			Client:  c,
			Message: message,
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Manager.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
