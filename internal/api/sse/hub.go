// Package sse streams live session updates to connected clients.
package sse

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/scoresnap/internal/model"
)

// Hub fans messages out to the clients watching one session
type Hub struct {
	sessionID model.SessionID
	logger    *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub for a session; call Run to start it
func NewHub(sessionID model.SessionID, logger *slog.Logger) *Hub {
	return &Hub{
		sessionID: sessionID,
		logger:    logger.With(slog.String("session_id", string(sessionID))),
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
}

// Run delivers broadcasts until Close is called
func (h *Hub) Run() {
	h.logger.Debug("sse hub started")
	for {
		select {
		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("sse messages dropped, client buffers full", slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			count := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Debug("sse hub stopped", slog.Int("disconnected_clients", count))
			return
		}
	}
}

// Register adds a client; it returns false if the hub has stopped.
// The client is counted by the time Register returns.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return false
	default:
	}
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("sse client registered",
		slog.String("user_id", string(client.userID)),
		slog.Int("total_clients", count))
	return true
}

// Unregister removes a client and closes its message channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("sse client unregistered",
			slog.String("user_id", string(client.userID)),
			slog.Duration("connection_duration", time.Since(client.connectedAt)),
			slog.Int("total_clients", count))
	}
}

// Broadcast queues a raw message for every client
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped, hub buffer full")
	}
}

// BroadcastEvent queues a named event
func (h *Hub) BroadcastEvent(event, data string) {
	h.Broadcast(formatMessage(event, data))
}

// Close stops the hub and disconnects its clients
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatMessage renders an event in the text/event-stream format,
// prefixing every line of data
func formatMessage(event, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range dataLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func dataLines(data string) []string {
	data = strings.ReplaceAll(data, "\r", "")
	data = strings.TrimSuffix(data, "\n")
	return strings.Split(data, "\n")
}

// HubManager owns one hub per watched session
type HubManager struct {
	mu     sync.Mutex
	hubs   map[model.SessionID]*Hub
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.SessionID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// Join registers a new client on the session's hub, starting the hub if
// needed. The returned leave func unregisters the client and stops the hub
// once nobody is left watching.
func (m *HubManager) Join(sessionID model.SessionID, userID model.UserID) (*Client, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[sessionID]
	if !ok {
		hub = NewHub(sessionID, m.logger)
		m.hubs[sessionID] = hub
		go hub.Run()
	}
	client := NewClient(userID)
	hub.Register(client)

	var once sync.Once
	return client, func() {
		once.Do(func() { m.leave(sessionID, hub, client) })
	}
}

func (m *HubManager) leave(sessionID model.SessionID, hub *Hub, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub.Unregister(client)
	if m.hubs[sessionID] == hub && hub.ClientCount() == 0 {
		hub.Close()
		delete(m.hubs, sessionID)
		m.logger.Debug("sse hub released", slog.String("session_id", string(sessionID)))
	}
}

// Existing returns the hub for a session, or nil when nobody is watching
func (m *HubManager) Existing(sessionID model.SessionID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[sessionID]
}

// Len returns the number of running hubs
func (m *HubManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}

// Close stops every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
