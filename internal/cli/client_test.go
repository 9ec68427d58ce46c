package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/scoresnap/internal/api/apierr"
	"github.com/mcoot/scoresnap/internal/api/response"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/bowlers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Richie", body["name"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(response.Bowler{ID: "b-1", CanonicalName: "Richie"})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "tok")
	var bowler response.Bowler
	err := client.Post(context.Background(), "/api/v1/bowlers", map[string]string{"name": "Richie"}, &bowler)
	require.NoError(t, err)
	assert.Equal(t, "b-1", bowler.ID)
}

func TestClientOmitsAuthWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	var health HealthResult
	require.NoError(t, NewClient(server.URL, "").Get(context.Background(), "/health", &health))
	assert.Equal(t, "ok", health.Status)
}

func TestClientParsesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(apierr.ErrorResponse{Error: apierr.APIError{Code: "SESSION_NOT_FOUND", Message: "session not found"}})
	}))
	defer server.Close()

	err := NewClient(server.URL, "tok").Get(context.Background(), "/api/v1/sessions/x", nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, "SESSION_NOT_FOUND", statusErr.Code)
	assert.Contains(t, err.Error(), "SESSION_NOT_FOUND")
}

func TestClientPlainErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewClient(server.URL, "").Get(context.Background(), "/", nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Empty(t, statusErr.Code)
	assert.Equal(t, "HTTP 502: bad gateway", err.Error())
}

func TestClientDecodesUnprocessablePersist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(response.PersistResult{Success: false, Error: "no bowlers"})
	}))
	defer server.Close()

	var result response.PersistResult
	require.NoError(t, NewClient(server.URL, "tok").Post(context.Background(), "/persist", nil, &result))
	assert.False(t, result.Success)
	assert.Equal(t, "no bowlers", result.Error)
}

func TestClientPostFile(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		got, _ := io.ReadAll(file)
		assert.Equal(t, data, got)
		assert.Equal(t, "board.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	var health HealthResult
	err := NewClient(server.URL, "tok").PostFile(context.Background(), "/upload", "image", "board.png", "image/png", data, &health)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestClientDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(apierr.ErrorResponse{Error: apierr.APIError{Code: "SESSION_NOT_FOUND", Message: "gone"}})
			return
		}
		_, _ = w.Write([]byte("xlsx-bytes"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	var buf bytes.Buffer
	require.NoError(t, client.Download(context.Background(), "/export", &buf))
	assert.Equal(t, "xlsx-bytes", buf.String())

	buf.Reset()
	err := client.Download(context.Background(), "/missing", &buf)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "SESSION_NOT_FOUND", statusErr.Code)
	assert.Zero(t, buf.Len())
}
