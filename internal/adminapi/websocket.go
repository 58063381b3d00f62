package adminapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"mobacore/internal/obslog"
	"mobacore/internal/outcome"
)

const (
	// MaxWSConnectionsTotal bounds the debug tail's total connection count.
	MaxWSConnectionsTotal = 50
	// MaxWSConnectionsPerIP bounds connections from a single source.
	MaxWSConnectionsPerIP = 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		obslog.Warnf("adminapi: websocket connection rejected from origin: %s", origin)
		obslog.RecordAdminRequestRejected()
		return false
	},
}

type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// EventHub broadcasts each tick's outbound Events to subscribed debug
// clients. Strictly a tail: a client that can't keep up drops messages,
// it never blocks the tick loop.
type EventHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	wsLimiter  *WebSocketRateLimiter
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// Run drives the hub's register/unregister/broadcast loop. Call once,
// in its own goroutine, for the hub's lifetime.
func (h *EventHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			h.mu.Unlock()
			obslog.SetWSConnections(h.ClientCount())

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
			obslog.SetWSConnections(h.ClientCount())

		case message := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					h.mu.RUnlock()
					h.mu.Lock()
					if client, ok := h.clients[conn]; ok {
						h.wsLimiter.Release(client.ip)
						delete(h.clients, conn)
					}
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish fans a tick's outbound events out to every connected client.
// Called once per tick from the runtime that owns the Processor; never
// blocks (the broadcast channel has a bounded backlog and drops under
// backpressure).
func (h *EventHub) Publish(events []outcome.Event) {
	if len(events) == 0 || h.ClientCount() == 0 {
		return
	}
	body, err := json.Marshal(events)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- body:
	default:
	}
}

// ClientCount returns the number of connected debug clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades and registers a debug tail connection.
func (h *EventHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	h.mu.RLock()
	total := len(h.clients)
	h.mu.RUnlock()
	if total >= MaxWSConnectionsTotal {
		obslog.RecordAdminRequestRejected()
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		obslog.RecordAdminRequestRejected()
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.wsLimiter.Release(ip)
		return
	}

	client := &wsClient{conn: conn, ip: ip}
	h.register <- client

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			// Debug tail is outbound-only; any inbound message just keeps
			// the read pump alive so Close() is detected promptly.
		}
	}()
}
