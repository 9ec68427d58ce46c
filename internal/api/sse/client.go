package sse

import (
	"net/http"
	"time"

	"github.com/mcoot/scoresnap/internal/model"
)

const (
	keepalivePeriod = 30 * time.Second
	sendBufferSize  = 64
)

// Client is one connected event stream
type Client struct {
	userID      model.UserID
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a client for a user
func NewClient(userID model.UserID) *Client {
	return &Client{
		userID:      userID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Messages delivers formatted events; closed when the hub drops the client
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// ServeSSE streams a session's events to the response until the client
// disconnects or the feed stops
func (m *HubManager) ServeSSE(w http.ResponseWriter, r *http.Request, sessionID model.SessionID, userID model.UserID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	client, leave := m.Join(sessionID, userID)
	defer leave()

	_, _ = w.Write(formatMessage("connected", `{"session_id":"`+string(sessionID)+`"}`))
	flusher.Flush()

	ticker := time.NewTicker(keepalivePeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
