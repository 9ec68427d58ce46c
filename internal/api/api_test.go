package api_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mcoot/scoresnap/internal/api/apierr"
	"github.com/mcoot/scoresnap/internal/api/middleware"
	"github.com/mcoot/scoresnap/internal/api/response"
	"github.com/mcoot/scoresnap/internal/factory"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/vision"
)

// testServer wraps a test app and its router
type testServer struct {
	app     *factory.TestApp
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithApp(t, factory.NewTestApp())
}

func newTestServerWithApp(t *testing.T, app *factory.TestApp) *testServer {
	t.Helper()
	t.Cleanup(func() { _ = app.Close() })
	return &testServer{app: app, handler: app.Router()}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func register(t *testing.T, ts *testServer, username string) string {
	t.Helper()
	body := map[string]string{"username": username, "password": "secret123"}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.AuthResponse](t, rr).Token
}

func scoreboard(names ...string) *model.ParsedScoreboard {
	at := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	parsed := &model.ParsedScoreboard{
		DateTime:         &at,
		BowlingAlleyID:   "alley-1",
		BowlingAlleyName: "Strike Lanes",
	}
	for i, name := range names {
		total := 150 + i
		parsed.Bowlers = append(parsed.Bowlers, model.ParsedBowler{
			Name:  name,
			Games: []model.ParsedGame{{GameNumber: 1, TotalScore: &total}},
		})
	}
	return parsed
}

// submit posts a parsed scoreboard and persists it without mappings
func submitAndPersist(t *testing.T, ts *testServer, token string, parsed *model.ParsedScoreboard) response.PersistResult {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/uploads", parsed, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	up := decode[response.UploadResponse](t, rr)

	rr = ts.request(http.MethodPost, "/api/v1/uploads/"+up.Upload.ID+"/persist", map[string]any{}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[response.PersistResult](t, rr)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rr := ts.request(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "ok", path)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{
		"username":     "Alice",
		"password":     "secret123",
		"display_name": "Alice A",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	registered := decode[response.AuthResponse](t, rr)
	assert.Equal(t, "alice", registered.User.Username)
	assert.Equal(t, "Alice A", registered.User.DisplayName)
	assert.NotEmpty(t, registered.Token)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// Same username again
	rr = ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeUsernameTaken, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, registered.User.ID, decode[response.AuthResponse](t, rr).User.ID)

	rr = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{"username": "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeValidationFailed, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{"username": "alice", "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMeWithBearerAndCookie(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "bob")

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bob", decode[response.User](t, rr).Username)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/auth/me", "/api/v1/bowlers", "/api/v1/sessions"} {
		rr := ts.request(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
		assert.Equal(t, apierr.CodeUnauthorized, errorCode(t, rr), path)
	}

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestExpiredToken(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "carol")

	ts.app.MockClock.Advance(25 * time.Hour)

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestBowlerLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/bowlers", map[string]string{"name": "  Richie   Rich "}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[response.Bowler](t, rr)
	assert.Equal(t, "Richie Rich", created.CanonicalName)

	rr = ts.request(http.MethodPost, "/api/v1/bowlers", map[string]string{"name": "   "}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Alias
	rr = ts.request(http.MethodPost, "/api/v1/bowlers/"+created.ID+"/aliases", map[string]any{"alias": "RR"}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	detail := decode[response.BowlerDetail](t, rr)
	require.Len(t, detail.Aliases, 1)
	assert.Equal(t, "RR", detail.Aliases[0].Alias)
	assert.Equal(t, string(model.AliasSourceManual), detail.Aliases[0].Source)
	assert.InDelta(t, 1.0, detail.Aliases[0].Confidence, 1e-9)

	rr = ts.request(http.MethodPost, "/api/v1/bowlers/"+created.ID+"/aliases", map[string]any{"alias": "Rico", "source": "guessed"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/bowlers/"+created.ID, nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.BowlerDetail](t, rr).Aliases, 1)

	rr = ts.request(http.MethodGet, "/api/v1/bowlers/missing", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeBowlerNotFound, errorCode(t, rr))

	// Search
	rr = ts.request(http.MethodGet, "/api/v1/bowlers?q=RICH", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	found := decode[[]response.Bowler](t, rr)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	rr = ts.request(http.MethodGet, "/api/v1/bowlers?limit=abc", nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Resolve
	rr = ts.request(http.MethodPost, "/api/v1/bowlers/resolve", map[string]string{"name": "Richie Rich"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[response.NameResolution](t, rr)
	require.NotNil(t, res.ResolvedBowlerID)
	assert.Equal(t, created.ID, *res.ResolvedBowlerID)
	assert.False(t, res.NeedsUserInput)

	rr = ts.request(http.MethodPost, "/api/v1/bowlers/resolve", map[string]string{"name": "Zed"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	res = decode[response.NameResolution](t, rr)
	assert.Nil(t, res.ResolvedBowlerID)
	assert.Empty(t, res.Suggestions)

	// Stats
	rr = ts.request(http.MethodGet, "/api/v1/bowlers/"+created.ID+"/stats", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, decode[response.BowlerStats](t, rr).Games)
}

func TestUploadAndPersistFlow(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	// First night creates Richie
	first := submitAndPersist(t, ts, token, scoreboard("Richie", "Bob"))
	require.True(t, first.Success)
	require.NotNil(t, first.SessionID)
	assert.False(t, first.SessionMatched)
	require.Len(t, first.BowlerIDs, 2)
	richie := first.BowlerIDs[0]

	// "Rich" needs a decision
	rr := ts.request(http.MethodPost, "/api/v1/uploads", scoreboard("Rich"), token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	up := decode[response.UploadResponse](t, rr)
	assert.Equal(t, string(model.UploadStatusNeedsResolution), up.Upload.Status)
	assert.True(t, up.Analysis.NeedsResolution)
	require.Len(t, up.Analysis.UnresolvedNames, 1)
	assert.Equal(t, richie, up.Analysis.UnresolvedNames[0].Suggestions[0].Bowler.ID)

	rr = ts.request(http.MethodGet, "/api/v1/uploads/"+up.Upload.ID, nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.UploadResponse](t, rr).Analysis.NeedsResolution)

	rr = ts.request(http.MethodPost, "/api/v1/uploads/"+up.Upload.ID+"/analyze", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.NameAnalysis](t, rr).NeedsResolution)

	persist := map[string]any{
		"mappings": map[string]any{
			"Rich": map[string]any{"bowler_id": richie, "record_alias": true},
		},
	}
	rr = ts.request(http.MethodPost, "/api/v1/uploads/"+up.Upload.ID+"/persist", persist, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode[response.PersistResult](t, rr)
	assert.True(t, result.Success)
	assert.True(t, result.SessionMatched)
	assert.Equal(t, *first.SessionID, *result.SessionID)
	assert.Equal(t, []string{richie}, result.BowlerIDs)
	assert.Equal(t, 1, result.SkippedGames, "game 1 is already recorded for Richie")

	// Alias recorded, so "Rich" now resolves directly
	rr = ts.request(http.MethodPost, "/api/v1/bowlers/resolve", map[string]string{"name": "rich"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[response.NameResolution](t, rr)
	require.NotNil(t, res.ResolvedBowlerID)
	assert.Equal(t, richie, *res.ResolvedBowlerID)

	// Persisting twice is a conflict
	rr = ts.request(http.MethodPost, "/api/v1/uploads/"+up.Upload.ID+"/persist", map[string]any{}, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeUploadProcessed, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/bowlers/"+richie+"/stats", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[response.BowlerStats](t, rr)
	assert.Equal(t, 1, stats.Games)
	assert.InDelta(t, 150.0, stats.Average, 1e-9)
}

func TestUploadValidation(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/uploads", map[string]any{"bowlers": []any{}}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/uploads/missing", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeUploadNotFound, errorCode(t, rr))
}

func TestSessionEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")
	mallory := register(t, ts, "mallory")

	result := submitAndPersist(t, ts, alice, scoreboard("Alice", "Bob"))
	require.NotNil(t, result.SessionID)
	sessionID := *result.SessionID

	rr := ts.request(http.MethodGet, "/api/v1/sessions", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	sessions := decode[[]response.Session](t, rr)
	require.Len(t, sessions, 1)
	assert.Equal(t, sessionID, sessions[0].ID)
	assert.Equal(t, "Strike Lanes", sessions[0].BowlingAlleyName)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+sessionID, nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decode[response.SessionSummary](t, rr)
	require.Len(t, summary.Series, 2)
	totals := map[string]int{}
	for _, sr := range summary.Series {
		totals[sr.Bowler.CanonicalName] = sr.Total
	}
	assert.Equal(t, map[string]int{"Alice": 150, "Bob": 151}, totals)

	rr = ts.request(http.MethodGet, "/api/v1/alleys/stats", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	alleys := decode[[]response.AlleyStats](t, rr)
	require.Len(t, alleys, 1)
	assert.Equal(t, "Strike Lanes", alleys[0].Alley)
	assert.Equal(t, 2, alleys[0].Games)

	// Another user cannot see the session
	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+sessionID, nil, mallory)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/sessions", nil, mallory)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]response.Session](t, rr))
}

func TestSessionExport(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")
	result := submitAndPersist(t, ts, token, scoreboard("Alice"))

	rr := ts.request(http.MethodGet, "/api/v1/sessions/"+*result.SessionID+"/export", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "session-"+*result.SessionID+".xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Series")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[1][0])
	assert.Equal(t, "150", rows[1][1])
}

func TestSessionEventsStream(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")
	result := submitAndPersist(t, ts, token, scoreboard("Alice"))

	server := httptest.NewServer(ts.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/sessions/"+*result.SessionID+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 256)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "event: connected")
}

func TestUploadRateLimit(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	burst := ts.app.Config.RateLimit.Burst
	for i := 0; i < burst; i++ {
		rr := ts.request(http.MethodPost, "/api/v1/uploads", scoreboard("Alice"), token)
		require.Equal(t, http.StatusCreated, rr.Code, "upload %d", i+1)
	}

	rr := ts.request(http.MethodPost, "/api/v1/uploads", scoreboard("Alice"), token)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, apierr.CodeRateLimited, errorCode(t, rr))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// Other endpoints are not limited
	rr = ts.request(http.MethodGet, "/api/v1/sessions", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// pngImage is a PNG signature padded to a sniffable length
var pngImage = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func imageRequest(t *testing.T, token string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "scoreboard.png")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestImageUpload(t *testing.T) {
	var gotMIME string
	extractor := vision.ExtractorFunc(func(_ context.Context, _ []byte, mimeType string) (*model.ParsedScoreboard, error) {
		gotMIME = mimeType
		return scoreboard("Alice", "Bob"), nil
	})
	ts := newTestServerWithApp(t, factory.NewTestAppWithExtractor(extractor))
	token := register(t, ts, "alice")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, imageRequest(t, token, pngImage))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", gotMIME)

	up := decode[response.UploadResponse](t, rr)
	require.NotNil(t, up.Upload.Parsed)
	assert.Len(t, up.Upload.Parsed.Bowlers, 2)
	assert.False(t, up.Analysis.NeedsResolution)

	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, imageRequest(t, token, []byte("plain text, not a photo")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestImageUploadWithoutExtractor(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, imageRequest(t, token, pngImage))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, apierr.CodeVisionUnavailable, errorCode(t, rr))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")
	submitAndPersist(t, ts, token, scoreboard("Alice"))

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "scoresnap_http_request_duration_seconds")
	assert.Contains(t, body, "scoresnap_uploads_persisted_total")
}
