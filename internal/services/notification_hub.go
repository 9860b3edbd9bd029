package services

import (
	"context"
	"net/http"
	"sync"
	"time"

	"workdesk/internal/middleware"
	"workdesk/internal/models"
	"workdesk/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// PushMessage is the frame written to websocket clients.
type PushMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type hubClient struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan PushMessage
	hub    *NotificationHub
}

type userMessage struct {
	userID string
	msg    PushMessage
}

// NotificationHub pushes notifications to the recipient's open websocket
// connections. It is a NotificationSink; users without a connection are
// skipped silently.
type NotificationHub struct {
	clients    map[string]*hubClient
	register   chan *hubClient
	unregister chan *hubClient
	push       chan userMessage
	done       chan struct{}
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *logrus.Logger
}

func NewNotificationHub(logger *logrus.Logger) *NotificationHub {
	if logger == nil {
		logger = logrus.New()
	}
	return &NotificationHub{
		clients:    make(map[string]*hubClient),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		push:       make(chan userMessage, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Run serves register, unregister and push events until ctx is done, then
// closes every client.
func (h *NotificationHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.id] = client
			h.mutex.Unlock()
			h.logger.Debugf("Notification client %s connected for user %s", client.id, client.userID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				h.logger.Debugf("Notification client %s disconnected", client.id)
			}
			h.mutex.Unlock()

		case um := <-h.push:
			h.mutex.Lock()
			for id, client := range h.clients {
				if client.userID != um.userID {
					continue
				}
				select {
				case client.send <- um.msg:
				default:
					close(client.send)
					delete(h.clients, id)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Create queues n for delivery to its recipient.
func (h *NotificationHub) Create(ctx context.Context, n *models.Notification) error {
	um := userMessage{
		userID: n.UserID,
		msg:    PushMessage{Type: "notification", Data: n, Timestamp: n.CreatedAt},
	}
	select {
	case <-h.done:
		return ErrSinkUnavailable
	default:
	}
	select {
	case h.push <- um:
		return nil
	case <-h.done:
		return ErrSinkUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleWebSocket upgrades the request and subscribes it to the caller's
// notifications. The user comes from the actor headers or ?user_id=.
func (h *NotificationHub) HandleWebSocket(c *gin.Context) {
	userID, _ := middleware.ActorFrom(c)
	if userID == "" {
		userID = c.Query("user_id")
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user", "message": "user_id is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	client := &hubClient{
		id:     utils.GenerateID("ws"),
		userID: userID,
		conn:   conn,
		send:   make(chan PushMessage, 64),
		hub:    h,
	}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *NotificationHub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// readPump drains inbound frames so pongs and close frames are processed.
func (c *hubClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("WebSocket error: %v", err)
			}
			return
		}
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.logger.Warnf("WriteJSON error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
