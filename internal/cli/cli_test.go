package cli

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/wordduel/internal/protocol"
)

// fakeAdminAPI serves canned admin responses and records the last request
type fakeAdminAPI struct {
	lastPath  string
	lastQuery string
	lastAuth  string
}

func (f *fakeAdminAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastPath = r.URL.Path
	f.lastQuery = r.URL.RawQuery
	f.lastAuth = r.Header.Get("Authorization")

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/health":
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	case "/api/v1/status":
		_, _ = w.Write([]byte(`{"players":2,"matches":1,"connections":{"guessing":1,"waiting":1}}`))
	case "/api/v1/players":
		_, _ = w.Write([]byte(`{"players":[{"id":"AAAAAA","connected_at":"2024-01-01T12:00:00Z"}]}`))
	case "/api/v1/results":
		_, _ = w.Write([]byte(`{"results":[{"setter_id":"AAAAAA","guesser_id":"BBBBBB","secret_word":"giraffe","outcome":"guessed","total_guesses":4,"hints_given":1}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"PLAYER_NOT_FOUND","message":"Player not found"}}`))
	}
}

func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--admin-url", serverURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusText(t *testing.T) {
	api := &fakeAdminAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	out, err := run(t, srv.URL, "status")
	require.NoError(t, err)
	assert.Equal(t, "Players: 2\nMatches: 1\nConnections:\n  guessing: 1\n  waiting: 1\n", out)
}

func TestPlayersJSON(t *testing.T) {
	api := &fakeAdminAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	out, err := run(t, srv.URL, "--output", "json", "players")
	require.NoError(t, err)

	var resp PlayersResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Players, 1)
	assert.Equal(t, "AAAAAA", resp.Players[0].ID)
	assert.True(t, resp.Players[0].ConnectedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}

func TestResultsPassesLimit(t *testing.T) {
	api := &fakeAdminAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	out, err := run(t, srv.URL, "results", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, "limit=5", api.lastQuery)
	assert.Contains(t, out, `"giraffe" guessed after 4 guesses, 1 hints`)

	_, err = run(t, srv.URL, "results", "--limit=-1")
	assert.Error(t, err)
}

func TestAdminTokenIsSent(t *testing.T) {
	api := &fakeAdminAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, err := run(t, srv.URL, "--admin-token", "secret", "status")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", api.lastAuth)
}

// greetingListener accepts game connections on a unix socket and sends each a
// password request, like the game server does
func greetingListener(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "duel.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			raw, err := ln.Accept()
			if err != nil {
				return
			}
			_ = protocol.NewConn(raw).Send(protocol.RequestPassword())
			_ = raw.Close()
		}
	}()
	return path
}

func TestHealthChecksAdminAndGame(t *testing.T) {
	api := &fakeAdminAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	socket := greetingListener(t)

	out, err := run(t, srv.URL, "--network", "unix", "--socket", socket, "health")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/health", api.lastPath)
	assert.Equal(t, "Admin API ("+srv.URL+"): ok\nGame server (unix "+socket+"): ok\n", out)
}

func TestHealthFailsWhenGameIsDown(t *testing.T) {
	api := &fakeAdminAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	socket := filepath.Join(t.TempDir(), "missing.sock")

	out, err := run(t, srv.URL, "--output", "json", "--network", "unix", "--socket", socket, "health")
	require.ErrorIs(t, err, errUnhealthy)

	var report HealthReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ok", report.Admin)
	assert.Contains(t, report.Game, "dial unix")
	assert.False(t, report.Healthy())
}

func TestAPIErrorIsReported(t *testing.T) {
	api := &fakeAdminAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, err := run(t, srv.URL, "players", "ZZZZZZ")
	require.Error(t, err)
	assert.Equal(t, "/api/v1/players/ZZZZZZ", api.lastPath)
	assert.Contains(t, err.Error(), "PLAYER_NOT_FOUND")
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("WORDDUEL_NETWORK", "tcp")
	t.Setenv("WORDDUEL_PORT", "5000")
	t.Setenv("WORDDUEL_HOST", "example.test")

	c := DefaultConfig()
	network, addr, err := c.Transport().Address()
	require.NoError(t, err)
	assert.Equal(t, "tcp", network)
	assert.Equal(t, "example.test:5000", addr)
}

func TestOutputEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput("text", &buf)

	out.Print(MatchesResponse{})
	out.Print(ResultsResponse{})
	assert.Equal(t, "No active matches\nNo results yet\n", buf.String())
}
