package sse

import (
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/upload"
)

// Broadcaster publishes session events to whoever is watching
type Broadcaster struct {
	hubs   *HubManager
	logger *slog.Logger
}

var _ upload.Notifier = (*Broadcaster)(nil)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubs *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubs:   hubs,
		logger: logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// SessionUpdated sends a session-updated event to the session's hub
func (b *Broadcaster) SessionUpdated(event model.SessionUpdatedEvent) {
	hub := b.hubs.Existing(event.SessionID)
	if hub == nil {
		return
	}

	if event.GameIDs == nil {
		event.GameIDs = []model.GameID{}
	}
	if event.BowlerIDs == nil {
		event.BowlerIDs = []model.BowlerID{}
	}
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("session_id", string(event.SessionID)),
			slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(string(model.EventSessionUpdated), string(data))
}
