package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepsafe/pepsafe-backend-go/internal/busyness"
	"github.com/pepsafe/pepsafe-backend-go/internal/cache"
	"github.com/pepsafe/pepsafe-backend-go/internal/database"
	"github.com/pepsafe/pepsafe-backend-go/internal/handler"
	"github.com/pepsafe/pepsafe-backend-go/internal/health"
	"github.com/pepsafe/pepsafe-backend-go/internal/middleware"
	"github.com/pepsafe/pepsafe-backend-go/internal/privacy"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
	"github.com/pepsafe/pepsafe-backend-go/internal/risk"
	"github.com/pepsafe/pepsafe-backend-go/internal/service"
	"github.com/pepsafe/pepsafe-backend-go/internal/weather"
)

const testKey = "secret"

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := database.Open(ctx, database.Config{Driver: database.SQLite, Path: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db, nil))

	subjects := repository.NewSubjectRepository(db)
	pings := repository.NewPingRepository(db)
	chokes := repository.NewChokePointRepository(db)
	store := cache.NewMemoryStore()

	wx := weather.NewService(weather.NewOpenWeatherMap("", "", nil), store, 0, 0, nil)
	t.Cleanup(wx.Stop)
	busy := busyness.NewService(busyness.Model{}, store, 0, nil)
	now := func() time.Time { return testNow }

	ingest := service.NewIngestService(subjects, pings, chokes, wx, busy,
		privacy.NewGateway(50, nil), service.IngestConfig{Now: now}, nil)

	registry := health.NewRegistry(0)
	registry.Register("database", true, db.PingContext)
	registry.Register(handler.CacheCheckName, false, store.Ping)

	return SetupRouter(Handlers{
		Ping:        handler.NewPingHandler(ingest, "pepper"),
		Subjects:    handler.NewSubjectHandler(service.NewSubjectService(subjects)),
		ChokePoints: handler.NewChokePointHandler(service.NewChokePointService(chokes)),
		Dashboard:   handler.NewDashboardHandler(service.NewDashboardService(pings, risk.DefaultWeights, "", now)),
		Stats:       handler.NewStatsHandler(service.NewStatsService(repository.NewStatsRepository(db), subjects)),
		Health:      handler.NewHealthHandler(registry, handler.CacheStats{Weather: wx.Stats, Busyness: busy.Stats}, "test"),
	}, Options{
		APIKey:      testKey,
		RateLimiter: middleware.NewRateLimiter(ctx, 100, time.Minute),
	})
}

func do(r *gin.Engine, method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set(middleware.APIKeyHeader, testKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRouter_HealthEndpoints(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", false).Code)

	w := do(r, http.MethodGet, "/health/ready", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, true, body["cache_available"])
	assert.Equal(t, "test", body["version"])
	assert.Contains(t, body, "weather")
	assert.Contains(t, body, "busyness")

	w = do(r, http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pepsafe_")
}

func TestRouter_PingRequiresAPIKey(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/ping", `{"user":"pepper","lat":32.1,"lon":34.8}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_PrivacyFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/users",
		`{"id":"pepper","name":"Pepper","home_lat":32.0853,"home_lon":34.7818}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "32.0853")
	assert.Equal(t, true, decode(t, w)["has_home_zone"])

	w = do(r, http.MethodPost, "/api/v1/users", `{"id":"pepper"}`, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/ping",
		`{"user":"pepper","lat":32.0853,"lon":34.7819,"speed":0.3,"timestamp":"2025-03-14T11:59:00Z"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "filtered", decode(t, w)["status"])

	// only the home ping exists so far
	w = do(r, http.MethodGet, "/dashboard/api/pepper", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no_data", decode(t, w)["status"])

	w = do(r, http.MethodPost, "/api/v1/ping",
		`{"user":"pepper","lat":32.10,"lon":34.80,"speed":5,"bearing":90,"timestamp":"2025-03-14T12:00:00Z"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "accepted", body["status"])
	assert.NotNil(t, body["ping_id"])

	w = do(r, http.MethodGet, "/dashboard/api/pepper", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "connected", body["status"])
	assert.Equal(t, "pepper", body["pet_name"])
	location := body["location"].(map[string]any)
	assert.Equal(t, true, location["is_available"])
	assert.Equal(t, "https://maps.google.com/?q=32.1,34.8", location["maps_url"])

	w = do(r, http.MethodGet, "/api/v1/users/pepper/risk", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", decode(t, w)["status"])

	w = do(r, http.MethodDelete, "/api/v1/users/pepper/home-zone", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["has_home_zone"])

	w = do(r, http.MethodPut, "/api/v1/users/ghost/home-zone", `{"home_lat":1,"home_lon":1}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_InvalidPing(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/ping", `{"user":"pepper","lat":100,"lon":34.8}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/ping", `{"user":"pepper","lon":34.8}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/ping", `not json`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_OwnTracks(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/ping/owntracks", `{"_type":"transition","event":"leave"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/ping/owntracks",
		`{"_type":"location","lat":32.1,"lon":34.8,"vel":18,"cog":90,"acc":5,"tst":1741953600,"tid":"pp"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "accepted", decode(t, w)["status"])

	w = do(r, http.MethodGet, "/api/v1/users/pepper", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pepper", decode(t, w)["id"])
}

func TestRouter_ChokePoints(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/choke-points", `{"name":"North gate","lat":32.1,"lon":34.8,"category":"gate"}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, 50.0, created["radius_m"])
	id := int(created["id"].(float64))

	w = do(r, http.MethodPost, "/api/v1/choke-points", `{"name":"Bad","lat":32.1}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/choke-points", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	path := "/api/v1/choke-points/" + strconv.Itoa(id)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, path, "", true).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, path, "", true).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, path, "", true).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/choke-points/abc", "", true).Code)
}

func TestRouter_WalkStatistics(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/users", `{"id":"pepper","home_lat":32.0853,"home_lon":34.7818}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/api/v1/choke-points", `{"name":"North gate","lat":32.1,"lon":34.8}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, body := range []string{
		`{"user":"pepper","lat":32.0853,"lon":34.7819,"timestamp":"2025-03-14T11:58:00Z"}`,
		`{"user":"pepper","lat":32.10,"lon":34.80,"speed":2,"timestamp":"2025-03-14T11:59:00Z"}`,
		`{"user":"pepper","lat":32.1001,"lon":34.80,"speed":4,"timestamp":"2025-03-14T12:00:00Z"}`,
	} {
		w = do(r, http.MethodPost, "/api/v1/ping", body, true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/users/pepper/stats", "", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "32.0853")
	body := decode(t, w)
	assert.Equal(t, 3.0, body["total_pings"])
	assert.Equal(t, 1.0, body["home_zone_pings"])
	assert.Equal(t, 2.0, body["outside_pings"])
	assert.Equal(t, 2.0, body["enriched_pings"])
	assert.Equal(t, "2025-03-14T11:58:00Z", body["first_ping"])
	assert.Equal(t, "2025-03-14T12:00:00Z", body["last_ping"])
	assert.InDelta(t, 3.0, body["avg_speed_ms"], 1e-9)
	assert.InDelta(t, 4.0, body["max_speed_ms"], 1e-9)
	encounters := body["choke_points"].([]any)
	require.Len(t, encounters, 1)
	assert.Equal(t, 2.0, encounters[0].(map[string]any)["ping_count"])

	start := strconv.FormatInt(testNow.Unix(), 10)
	w = do(r, http.MethodGet, "/api/v1/users/pepper/stats?startTime="+start, "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["total_pings"])

	w = do(r, http.MethodGet, "/api/v1/users/pepper/stats/hourly", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var hours []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hours))
	require.Len(t, hours, 2)
	assert.Equal(t, 11.0, hours[0]["hour"])
	assert.Equal(t, 1.0, hours[0]["ping_count"])
	assert.Equal(t, 12.0, hours[1]["hour"])

	w = do(r, http.MethodGet, "/api/v1/users/pepper/stats?startTime=200&endTime=100", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodGet, "/api/v1/users/pepper/stats?startTime=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodGet, "/api/v1/users/ghost/stats", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(r, http.MethodGet, "/api/v1/users/pepper/stats", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
