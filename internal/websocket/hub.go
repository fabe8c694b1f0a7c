package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"elocation/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Client represents a single connected WebSocket client
type Client struct {
	hub    *Hub
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

type delivery struct {
	userID  uuid.UUID
	message []byte
}

// Hub keeps the connected clients per user. Run owns the registry; everything else talks to it over channels.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	stats      chan chan Stats
	done       chan struct{}
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

// NewHub initializes a new WS Hub instance. An empty allowedOrigins accepts any origin.
func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 1024),
		stats:      make(chan chan Stats),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Run dispatches registrations and deliveries until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.log.Debug("client connected", zap.String("user_id", client.userID.String()), zap.Int("connections", len(set)))
		case client := <-h.unregister:
			h.remove(client)
		case d := <-h.deliver:
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		case reply := <-h.stats:
			st := Stats{Users: len(h.clients)}
			for _, set := range h.clients {
				st.Connections += len(set)
			}
			reply <- st
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	h.log.Debug("client disconnected", zap.String("user_id", client.userID.String()))
}

// SendToUser queues a message for every connection of the user. It never blocks; when the
// queue is full the message is dropped since notifications are also stored.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	select {
	case h.deliver <- delivery{userID: userID, message: message}:
	default:
		h.log.Warn("delivery queue full, message dropped", zap.String("user_id", userID.String()))
	}
}

// Stats counts connected users and their connections
type Stats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
}

// Stats asks the Run loop for current counts; it returns zeros once the hub stopped
func (h *Hub) Stats(ctx context.Context) Stats {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
	case <-ctx.Done():
		return Stats{}
	case <-h.done:
		return Stats{}
	}
	select {
	case st := <-reply:
		return st
	case <-ctx.Done():
		return Stats{}
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
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

// readPump only watches for close and pong frames; clients do not send anything meaningful
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
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
				c.hub.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// ServeWs upgrades an authenticated request. Browsers cannot set headers on a websocket
// handshake, so the token may also come from the "token" query parameter.
func (h *Hub) ServeWs(c *gin.Context, secret []byte) {
	tokenString := c.Query("token")
	if tokenString == "" {
		if cookie, err := c.Cookie("access_token"); err == nil {
			tokenString = cookie
		}
	}
	if tokenString == "" {
		tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if tokenString == "" {
		h.log.Info("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	actor, err := middleware.ParseToken(tokenString, secret)
	if err != nil {
		h.log.Info("websocket connection rejected: invalid token", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: h, userID: actor.ID, conn: conn, send: make(chan []byte, sendBufferSize)}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
