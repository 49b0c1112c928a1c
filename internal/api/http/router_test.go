package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/api/http/handlers"
	"github.com/spec-kit/milestone-tracker/internal/auth"
	"github.com/spec-kit/milestone-tracker/internal/command"
	"github.com/spec-kit/milestone-tracker/internal/config"
	"github.com/spec-kit/milestone-tracker/internal/observability"
	"github.com/spec-kit/milestone-tracker/internal/repository"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, digest string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[digest]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, digest string, results []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[digest] = results
	return nil
}

type memoryRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*repository.Run
}

func (m *memoryRuns) Save(_ context.Context, run *repository.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = uuid.New()
	run.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRuns) Get(_ context.Context, id uuid.UUID) (*repository.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, apperrors.NewNotFound("replay run not found", nil)
	}
	return run, nil
}

func (m *memoryRuns) LatestByDigest(_ context.Context, digest string) (*repository.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, run := range m.runs {
		if run.Digest == digest {
			return run, nil
		}
	}
	return nil, apperrors.NewNotFound("replay run not found", nil)
}

type stubPinger struct {
	enabled bool
	err     error
}

func (s stubPinger) Ping(context.Context) error { return s.err }
func (s stubPinger) Enabled() bool              { return s.enabled }

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, runs repository.RunRepository, tokens *auth.TokenManager, deps map[string]handlers.Pinger) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	processor := command.NewProcessor(config.EngineConfig{TestingPhaseDays: 12}, config.NotificationConfig{}, logger, metrics)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("milestone-tracker", "test", deps),
		Replays:        handlers.NewReplayHandler(processor, &memoryCache{data: map[string][]byte{}}, runs, metrics, logger),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return &testServer{app: app, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

const replayBody = `{
  "users": [
    {"username": "rita", "email": "rita@example.com", "role": "REPORTER"}
  ],
  "commands": [
    {"command": "reportTicket", "username": "rita", "timestamp": "2025-01-01",
     "params": {"type": "FEATURE_REQUEST", "title": "Dark mode", "businessPriority": "LOW",
                "expertiseArea": "FRONTEND", "businessValue": "S", "customerDemand": "LOW"}},
    {"command": "viewTickets", "username": "rita", "timestamp": "2025-01-02"}
  ]
}`

func TestReplayWithoutArchiveUsesCache(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	status, body := srv.do(t, "POST", "/v1/replays", replayBody)
	require.Equal(t, fiber.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["cached"])
	assert.NotContains(t, data, "id")
	assert.Len(t, data["digest"], 64)
	results := data["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "viewTickets", first["command"])
	assert.Len(t, first["tickets"], 1)

	status, body = srv.do(t, "POST", "/v1/replays", replayBody)
	require.Equal(t, fiber.StatusOK, status)
	cached := body["data"].(map[string]any)
	assert.Equal(t, true, cached["cached"])
	assert.Equal(t, data["digest"], cached["digest"])
	assert.Equal(t, data["results"], cached["results"])

	snap := srv.metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Replays)
	assert.Equal(t, int64(1), snap.CacheHits)
}

func TestReplayArchiveRoundTrip(t *testing.T) {
	srv := newTestServer(t, &memoryRuns{runs: map[uuid.UUID]*repository.Run{}}, nil, nil)

	status, body := srv.do(t, "POST", "/v1/replays", replayBody)
	require.Equal(t, fiber.StatusCreated, status, body)
	created := body["data"].(map[string]any)
	id := created["id"].(string)
	require.NotEmpty(t, id)

	status, body = srv.do(t, "GET", "/v1/replays/"+id, "")
	require.Equal(t, fiber.StatusOK, status)
	fetched := body["data"].(map[string]any)
	assert.Equal(t, created["digest"], fetched["digest"])
	assert.Equal(t, created["results"], fetched["results"])
	assert.EqualValues(t, 2, fetched["commands"])

	status, body = srv.do(t, "GET", "/v1/replays/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidation, body["error"].(map[string]any)["code"])

	status, _ = srv.do(t, "GET", "/v1/replays/"+uuid.NewString(), "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestReplayRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	status, body := srv.do(t, "POST", "/v1/replays", `{"users":[{"username":"x","role":"ADMIN"}],"commands":[]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidation, body["error"].(map[string]any)["code"])

	status, _ = srv.do(t, "POST", "/v1/replays", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = srv.do(t, "GET", "/v1/replays/"+uuid.NewString(), "")
	assert.Equal(t, fiber.StatusNotFound, status, "archive disabled")
	assert.Equal(t, apperrors.CodeNotFound, body["error"].(map[string]any)["code"])
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	status, body := srv.do(t, "GET", "/nope", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, body["error"].(map[string]any)["code"])
}

func TestAuthenticatedRoutes(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "milestone-tracker", time.Hour)
	srv := newTestServer(t, nil, tokens, nil)

	status, _ := srv.do(t, "POST", "/v1/replays", replayBody)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	reader, _, err := tokens.GenerateToken("dash", []string{auth.ScopeMetricsRead})
	require.NoError(t, err)
	status, _ = srv.do(t, "POST", "/v1/replays", replayBody, "Authorization", "Bearer "+reader)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := srv.do(t, "GET", "/v1/metrics", "", "Authorization", "Bearer "+reader)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body["data"], "replays")

	writer, _, err := tokens.GenerateToken("ci", []string{auth.ScopeReplayWrite})
	require.NoError(t, err)
	status, _ = srv.do(t, "POST", "/v1/replays", replayBody, "Authorization", "Bearer "+writer)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil, map[string]handlers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{enabled: true},
	})
	status, body := srv.do(t, "GET", "/health/ready", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "ok"}, body["dependencies"])

	down := newTestServer(t, nil, nil, map[string]handlers.Pinger{
		"redis": stubPinger{enabled: true, err: errors.New("connection refused")},
	})
	status, body = down.do(t, "GET", "/health/ready", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", body["error"].(map[string]any)["code"])

	status, body = srv.do(t, "GET", "/health/live", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])
}

func TestReplayReturnsArchivedRunForSameInput(t *testing.T) {
	srv := newTestServer(t, &memoryRuns{runs: map[uuid.UUID]*repository.Run{}}, nil, nil)

	status, body := srv.do(t, "POST", "/v1/replays", replayBody)
	require.Equal(t, fiber.StatusCreated, status, body)
	first := body["data"].(map[string]any)
	assert.Equal(t, false, first["cached"])

	status, body = srv.do(t, "POST", "/v1/replays", replayBody)
	require.Equal(t, fiber.StatusOK, status, body)
	again := body["data"].(map[string]any)
	assert.Equal(t, true, again["cached"])
	assert.Equal(t, first["id"], again["id"])
	assert.Equal(t, first["results"], again["results"])

	snap := srv.metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Replays)
	assert.Equal(t, int64(1), snap.CacheHits)
}
