package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	email string
}

type envelope struct {
	recipient string
	message   []byte
}

// Hub pushes notifications to the websocket connections of their recipient.
// One account may hold several connections.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}

	register   chan *client
	unregister chan *client
	deliver    chan envelope
	done       chan struct{}
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		clients:    make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		deliver:    make(chan envelope, 256),
		done:       make(chan struct{}),
	}
}

// originChecker allows same-origin requests and the configured origins. A
// "*" entry allows any origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Run owns the connection registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for email, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
				delete(h.clients, email)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.email] == nil {
				h.clients[c.email] = make(map[*client]struct{})
			}
			h.clients[c.email][c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.drop(c)
		case e := <-h.deliver:
			h.mu.RLock()
			var slow []*client
			for c := range h.clients[e.recipient] {
				select {
				case c.send <- e.message:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.drop(c)
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.email]
	if !ok {
		return
	}
	if _, ok = conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.clients, c.email)
	}
}

// Connected returns the number of open connections of email.
func (h *Hub) Connected(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[email])
}

// Notify queues the notification for delivery. It never blocks: when the
// queue is full the notification is dropped.
func (h *Hub) Notify(_ context.Context, recipient string, kind domain.NotificationType, payload map[string]any) {
	message, err := json.Marshal(domain.Notification{Recipient: recipient, Type: kind, Payload: payload})
	if err != nil {
		zap.L().Error("could not encode notification", zap.String("type", string(kind)), zap.Error(err))
		return
	}

	select {
	case h.deliver <- envelope{recipient: recipient, message: message}:
	default:
		zap.L().Warn("notification queue full, dropping", zap.String("type", string(kind)), zap.String("recipient", recipient))
	}
}

// Serve upgrades the request and subscribes the connection to the
// notifications of email. The caller has authenticated email.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, email string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		email: email,
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go c.writePump()
	go c.readPump(h)

	return nil
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer going away; clients send nothing.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket closed", zap.String("email", c.email), zap.Error(err))
			}
			return
		}
	}
}
