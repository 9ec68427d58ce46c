package e2e_test

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mcoot/scoresnap/internal/api"
	"github.com/mcoot/scoresnap/internal/api/response"
	"github.com/mcoot/scoresnap/internal/factory"
	"github.com/mcoot/scoresnap/internal/model"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(t.TempDir(), "scoresnap-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/scoresnap")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "SCORESNAP_TOKEN=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// runJSON runs a command that must succeed and decodes its output
func runJSON[T any](t *testing.T, r *cliRunner, args ...string) T {
	t.Helper()
	out, err := r.run(args...)
	require.NoError(t, err, out)
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer serves a memory-backed app on a random local port
func startTestServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := factory.NewTestApp()
	cfg := app.Config.Server
	server := api.NewServer(app.Router(), cfg, app.Logger)

	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		_ = app.Close()
	})

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

func writeScoreboard(t *testing.T, names ...string) string {
	t.Helper()
	at := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	parsed := model.ParsedScoreboard{
		DateTime:         &at,
		BowlingAlleyName: "Strike Lanes",
		Location:         "Springfield",
	}
	for i, name := range names {
		total := 120 + 10*i
		parsed.Bowlers = append(parsed.Bowlers, model.ParsedBowler{
			Name:  name,
			Games: []model.ParsedGame{{GameNumber: 1, TotalScore: &total}},
		})
	}

	data, err := json.Marshal(parsed)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "scoreboard.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestCLIHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the CLI binary")
	}
	cli := newCLIRunner(t, startTestServer(t))

	health := runJSON[map[string]string](t, cli, "health")
	assert.Equal(t, "ok", health["status"])
}

func TestCLIAuthFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the CLI binary")
	}
	cli := newCLIRunner(t, startTestServer(t))

	// whoami without a token fails
	out, err := cli.run("auth", "whoami")
	require.Error(t, err)
	assert.Contains(t, out, "UNAUTHORIZED")

	registered := runJSON[response.AuthResponse](t, cli, "auth", "register", "--user", "alice", "--pass", "secret123", "--name", "Alice")
	assert.Equal(t, "alice", registered.User.Username)

	saved, err := os.ReadFile(cli.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, registered.Token, string(saved))

	me := runJSON[response.User](t, cli, "auth", "whoami")
	assert.Equal(t, "Alice", me.DisplayName)

	out, err = cli.run("auth", "logout")
	require.NoError(t, err, out)
	_, err = os.Stat(cli.tokenFile)
	assert.True(t, os.IsNotExist(err))

	loggedIn := runJSON[response.AuthResponse](t, cli, "auth", "login", "--user", "alice", "--pass", "secret123")
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
}

func TestCLIScoreboardFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the CLI binary")
	}
	cli := newCLIRunner(t, startTestServer(t))
	runJSON[response.AuthResponse](t, cli, "auth", "register", "--user", "alice", "--pass", "secret123")

	richie := runJSON[response.Bowler](t, cli, "bowler", "create", "Richie")
	runJSON[response.BowlerDetail](t, cli, "bowler", "alias", richie.ID, "Ritchie")

	found := runJSON[[]response.Bowler](t, cli, "bowler", "search", "rich")
	require.Len(t, found, 1)
	assert.Equal(t, richie.ID, found[0].ID)

	// Submit a scoreboard where one name needs a decision
	submitted := runJSON[response.UploadResponse](t, cli, "upload", "submit", writeScoreboard(t, "Rich", "Bob"))
	assert.True(t, submitted.Analysis.NeedsResolution)
	require.Len(t, submitted.Analysis.UnresolvedNames, 1)
	assert.Equal(t, "Rich", submitted.Analysis.UnresolvedNames[0].ParsedName)

	shown := runJSON[response.UploadResponse](t, cli, "upload", "show", submitted.Upload.ID)
	assert.Equal(t, submitted.Upload.ID, shown.Upload.ID)

	result := runJSON[response.PersistResult](t, cli, "upload", "persist", submitted.Upload.ID, "--map", "Rich="+richie.ID, "--record-alias")
	require.True(t, result.Success)
	require.NotNil(t, result.SessionID)
	assert.Contains(t, result.BowlerIDs, richie.ID)

	detail := runJSON[response.BowlerDetail](t, cli, "bowler", "show", richie.ID)
	assert.Len(t, detail.Aliases, 2)

	resolution := runJSON[response.NameResolution](t, cli, "bowler", "resolve", "Rich")
	require.NotNil(t, resolution.ResolvedBowlerID)
	assert.Equal(t, richie.ID, *resolution.ResolvedBowlerID)

	stats := runJSON[response.BowlerStats](t, cli, "bowler", "stats", richie.ID)
	assert.Equal(t, 1, stats.Games)
	assert.Equal(t, 120, stats.HighGame)

	// Sessions
	sessions := runJSON[[]response.Session](t, cli, "session", "list")
	require.Len(t, sessions, 1)
	assert.Equal(t, *result.SessionID, sessions[0].ID)

	summary := runJSON[response.SessionSummary](t, cli, "session", "show", *result.SessionID)
	assert.Len(t, summary.Series, 2)

	alleys := runJSON[[]response.AlleyStats](t, cli, "session", "alleys")
	require.Len(t, alleys, 1)
	assert.Equal(t, "Strike Lanes", alleys[0].Alley)

	exportPath := filepath.Join(t.TempDir(), "night.xlsx")
	out, err := cli.run("session", "export", *result.SessionID, "--file", exportPath)
	require.NoError(t, err, out)
	book, err := excelize.OpenFile(exportPath)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Series")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// Persisting again is refused
	out, err = cli.run("upload", "persist", submitted.Upload.ID)
	require.Error(t, err)
	assert.Contains(t, out, "UPLOAD_PROCESSED")
}

func TestCLIUnknownSession(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the CLI binary")
	}
	cli := newCLIRunner(t, startTestServer(t))
	runJSON[response.AuthResponse](t, cli, "auth", "register", "--user", "alice", "--pass", "secret123")

	out, err := cli.run("session", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, out, "SESSION_NOT_FOUND")
}
