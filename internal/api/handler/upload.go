package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/scoresnap/internal/api/apierr"
	"github.com/mcoot/scoresnap/internal/api/middleware"
	"github.com/mcoot/scoresnap/internal/api/request"
	"github.com/mcoot/scoresnap/internal/api/response"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/bowler"
	"github.com/mcoot/scoresnap/internal/services/upload"
	"github.com/mcoot/scoresnap/internal/vision"
)

// MaxImageBytes bounds uploaded scoreboard photos
const MaxImageBytes = 10 << 20

// ImageField is the multipart field holding a scoreboard photo
const ImageField = "image"

// UploadHandler handles scoreboard upload endpoints
type UploadHandler struct {
	uploads *upload.Service
	bowlers *bowler.Service
	logger  *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *upload.Service, bowlers *bowler.Service, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		bowlers: bowlers,
		logger:  logger,
	}
}

// Submit handles POST /api/v1/uploads. The body is either a parsed
// scoreboard as JSON or a multipart form with an image field.
func (h *UploadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		up       *model.Upload
		analysis *model.NameAnalysis
		err      error
	)
	if mediaType == "multipart/form-data" {
		var image []byte
		var mimeType string
		image, mimeType, err = readImage(w, r)
		if err != nil {
			apierr.WriteError(w, err)
			return
		}
		up, analysis, err = h.uploads.SubmitImage(r.Context(), userID, image, mimeType)
	} else {
		var parsed model.ParsedScoreboard
		if err := request.Decode(r, &parsed); err != nil {
			apierr.WriteError(w, err)
			return
		}
		up, analysis, err = h.uploads.Submit(r.Context(), userID, &parsed)
	}
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.UploadResponse{
		Upload:   response.UploadFromModel(up),
		Analysis: response.NameAnalysisFromModel(analysis),
	})
}

func readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+1<<10)
	file, header, err := r.FormFile(ImageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", apierr.NewInvalidRequestError("image is too large")
		}
		return nil, "", apierr.NewInvalidRequestError("multipart field \"image\" is required")
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return nil, "", apierr.NewInvalidRequestError("failed to read image")
	}
	if len(image) > MaxImageBytes {
		return nil, "", apierr.NewInvalidRequestError("image is too large")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if err := vision.CheckImage(image, mimeType); err != nil {
		return nil, "", err
	}
	return image, mimeType, nil
}

// Get handles GET /api/v1/uploads/{id}
func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())
	up, err := h.uploads.Get(r.Context(), uploadID(r), userID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	analysis, err := h.uploads.AnalyzeNameResolution(r.Context(), up.Parsed)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UploadResponse{
		Upload:   response.UploadFromModel(up),
		Analysis: response.NameAnalysisFromModel(analysis),
	})
}

// Analyze handles POST /api/v1/uploads/{id}/analyze
func (h *UploadHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.uploads.Analyze(r.Context(), uploadID(r), middleware.MustGetUserID(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.NameAnalysisFromModel(analysis))
}

// Persist handles POST /api/v1/uploads/{id}/persist. Mappings flagged with
// record_alias are saved as manual aliases before the scoreboard is
// persisted; a failed persist answers 422 with the result.
func (h *UploadHandler) Persist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.MustGetUserID(ctx)

	var req request.PersistRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	up, err := h.uploads.Get(ctx, uploadID(r), userID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if up.Status == model.UploadStatusProcessed {
		apierr.WriteError(w, model.ErrUploadProcessed)
		return
	}

	mappings := make(map[string]model.BowlerID, len(req.Mappings))
	for name, m := range req.Mappings {
		id := model.BowlerID(m.BowlerID)
		mappings[name] = id
		if !m.RecordAlias || id == "" {
			continue
		}
		if err := h.bowlers.AddAlias(ctx, id, name, model.AliasSourceManual, 1.0); err != nil {
			apierr.WriteError(w, err)
			return
		}
	}

	result, err := h.uploads.PersistUpload(ctx, up.ID, userID, mappings)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
		h.logger.Warn("upload persist failed",
			slog.String("upload_id", string(up.ID)),
			slog.String("error", result.Error),
		)
	}
	response.JSON(w, status, response.PersistResultFromModel(result))
}

func uploadID(r *http.Request) model.UploadID {
	return model.UploadID(mux.Vars(r)["id"])
}
