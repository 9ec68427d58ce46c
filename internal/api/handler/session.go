package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/scoresnap/internal/api/apierr"
	"github.com/mcoot/scoresnap/internal/api/middleware"
	"github.com/mcoot/scoresnap/internal/api/response"
	"github.com/mcoot/scoresnap/internal/api/sse"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/session"
	"github.com/mcoot/scoresnap/internal/services/stats"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessions *session.Service
	stats    *stats.Service
	hubs     *sse.HubManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Service, stats *stats.Service, hubs *sse.HubManager) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		stats:    stats,
		hubs:     hubs,
	}
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List(r.Context(), middleware.MustGetUserID(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionsFromModel(sessions))
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}
	summary, err := h.stats.SessionSummary(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionSummaryFromModel(summary))
}

// Export handles GET /api/v1/sessions/{id}/export
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}

	// buffered so a failure can still produce an error envelope
	var buf bytes.Buffer
	if err := h.stats.ExportSessionXLSX(r.Context(), id, &buf); err != nil {
		apierr.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Events handles GET /api/v1/sessions/{id}/events
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}
	h.hubs.ServeSSE(w, r, id, middleware.MustGetUserID(r.Context()))
}

// AlleyStats handles GET /api/v1/alleys/stats
func (h *SessionHandler) AlleyStats(w http.ResponseWriter, r *http.Request) {
	alleys, err := h.stats.AlleyStats(r.Context(), middleware.MustGetUserID(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.AlleyStatsFromModel(alleys))
}

// owned checks the session in the path belongs to the caller, writing an
// error response when it does not
func (h *SessionHandler) owned(w http.ResponseWriter, r *http.Request) (model.SessionID, bool) {
	id := model.SessionID(mux.Vars(r)["id"])
	if _, err := h.sessions.Get(r.Context(), id, middleware.MustGetUserID(r.Context())); err != nil {
		apierr.WriteError(w, err)
		return "", false
	}
	return id, true
}
