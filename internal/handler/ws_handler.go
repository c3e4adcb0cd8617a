package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"websiter-server/internal/domain"
	"websiter-server/internal/repository"
	"websiter-server/internal/websocket"
	"websiter-server/pkg/jwt"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	manager    *websocket.Manager
	clientRepo repository.ClientRepository
	jwtSecret  string
	upgrader   ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, clientRepo repository.ClientRepository, jwtSecret string) *WebSocketHandler {
	return &WebSocketHandler{
		manager:    manager,
		clientRepo: clientRepo,
		jwtSecret:  jwtSecret,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades the request and registers a watcher. The
// connection starts out watching the caller's own owner key; admins may
// pass ?client_id= to watch another client from the first frame.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}

	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return
	}

	claims, err := jwt.ValidateToken(token, h.jwtSecret)
	if err != nil {
		log.Printf("[WebSocket] Token validation failed: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	account, err := h.clientRepo.FindByID(claims.UserID)
	if err != nil {
		http.Error(w, "unknown account", http.StatusUnauthorized)
		return
	}
	isAdmin := account.Role == domain.RoleAdmin

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = "default"
	}

	watchID, watchEmail := account.ID, account.Email
	if target := r.URL.Query().Get("client_id"); target != "" && isAdmin {
		if watched, err := h.clientRepo.FindByID(target); err == nil {
			watchID, watchEmail = watched.ID, watched.Email
		} else {
			watchID, watchEmail = target, ""
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Failed to upgrade connection: %v", err)
		return
	}

	log.Printf("[WebSocket] Connection established for user %s (session %s)", account.ID, sessionID)

	client := websocket.NewClient(uuid.New().String(), account.ID, sessionID, isAdmin, watchID, watchEmail, conn, h.manager)
	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// WebSocketMessageHandler reacts to inbound frames: subscribe switches the
// watched owner key, ping gets a pong.
type WebSocketMessageHandler struct {
	clientRepo repository.ClientRepository
}

func NewWebSocketMessageHandler(clientRepo repository.ClientRepository) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{clientRepo: clientRepo}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeSubscribe:
		return h.handleSubscribe(client, msg)

	case websocket.TypePing:
		return h.handlePing(client)

	default:
		log.Printf("unknown message type: %s", msg.Type)
	}

	return nil
}

func (h *WebSocketMessageHandler) handleSubscribe(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.SubscribePayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}

	// Non-admins stay pinned to their own key no matter what they ask for.
	if !client.IsAdmin {
		return h.sendAck(client, false, "subscription target not allowed")
	}

	watchID, watchEmail := payload.OwnerID, payload.OwnerEmail
	if watchID != "" && watchEmail == "" {
		if watched, err := h.clientRepo.FindByID(watchID); err == nil {
			watchEmail = watched.Email
		}
	}

	client.SetWatchKey(watchID, watchEmail)
	return h.sendAck(client, true, "")
}

func (h *WebSocketMessageHandler) handlePing(client *websocket.Client) error {
	pongMsg, err := websocket.NewMessage(websocket.TypePong, nil)
	if err != nil {
		return err
	}

	pongBytes, _ := json.Marshal(pongMsg)
	client.Send <- pongBytes

	return nil
}

func (h *WebSocketMessageHandler) sendAck(client *websocket.Client, success bool, errMsg string) error {
	ackMsg, err := websocket.NewMessage(websocket.TypeAck, &websocket.AckPayload{
		Success: success,
		Error:   errMsg,
	})
	if err != nil {
		return err
	}

	ackBytes, _ := json.Marshal(ackMsg)
	client.Send <- ackBytes

	return nil
}
