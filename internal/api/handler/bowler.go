package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/scoresnap/internal/api/apierr"
	"github.com/mcoot/scoresnap/internal/api/middleware"
	"github.com/mcoot/scoresnap/internal/api/request"
	"github.com/mcoot/scoresnap/internal/api/response"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/bowler"
	"github.com/mcoot/scoresnap/internal/services/stats"
)

// BowlerHandler handles bowler endpoints
type BowlerHandler struct {
	bowlers *bowler.Service
	stats   *stats.Service
}

// NewBowlerHandler creates a new bowler handler
func NewBowlerHandler(bowlers *bowler.Service, stats *stats.Service) *BowlerHandler {
	return &BowlerHandler{
		bowlers: bowlers,
		stats:   stats,
	}
}

// Search handles GET /api/v1/bowlers?q=&limit=
// Without q every bowler is listed.
func (h *BowlerHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apierr.WriteError(w, apierr.NewInvalidRequestError("limit must be a number"))
			return
		}
		limit = n
	}

	var (
		bowlers []*model.Bowler
		err     error
	)
	if q == "" {
		bowlers, err = h.bowlers.List(r.Context())
	} else {
		bowlers, err = h.bowlers.Search(r.Context(), q, limit)
	}
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BowlersFromModel(bowlers))
}

// Create handles POST /api/v1/bowlers
func (h *BowlerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBowlerRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	b, err := h.bowlers.CreateBowler(r.Context(), req.Name, middleware.MustGetUserID(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.BowlerFromModel(b))
}

// Get handles GET /api/v1/bowlers/{id}
func (h *BowlerHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.bowlers.Get(r.Context(), bowlerID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BowlerDetailFromModel(b))
}

// AddAlias handles POST /api/v1/bowlers/{id}/aliases
func (h *BowlerHandler) AddAlias(w http.ResponseWriter, r *http.Request) {
	var req request.AddAliasRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	source := model.AliasSourceManual
	if req.Source != "" {
		source = model.AliasSource(req.Source)
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	id := bowlerID(r)
	if err := h.bowlers.AddAlias(r.Context(), id, req.Alias, source, confidence); err != nil {
		apierr.WriteError(w, err)
		return
	}

	b, err := h.bowlers.Get(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.BowlerDetailFromModel(b))
}

// Stats handles GET /api/v1/bowlers/{id}/stats
func (h *BowlerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.BowlerStats(r.Context(), bowlerID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BowlerStatsFromModel(s))
}

// Resolve handles POST /api/v1/bowlers/resolve
func (h *BowlerHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req request.ResolveRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	res, err := h.bowlers.ResolveName(r.Context(), req.Name)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.NameResolutionFromModel(res))
}

func bowlerID(r *http.Request) model.BowlerID {
	return model.BowlerID(mux.Vars(r)["id"])
}
