package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusunglee/mbta-board/internal/models"
	"github.com/jusunglee/mbta-board/internal/store"
)

// MockClient implements dashboard.Client on top of a real store
type MockClient struct {
	store *store.Store
}

func newMockClient() *MockClient {
	s := store.NewStore([]string{"green", "bikes"})
	s.UpdateGroup(models.GroupBoard{
		Name:      "green",
		Title:     "Green Line",
		UpdatedAt: time.Date(2025, 3, 1, 17, 4, 5, 0, time.UTC),
		Panels: []models.Panel{
			{
				ID:    "reservoir",
				Kind:  "train",
				Name:  "Reservoir",
				Route: "Green-D",
				Sections: []models.Section{{
					Direction:   "outbound",
					Destination: "Riverside",
					Source:      models.SectionLive,
					Alert: &models.Banner{
						Direction: "Outbound",
						Severity:  3,
						High:      true,
						Effect:    "delay",
						Icon:      "⏱️",
						Header:    "Delays of about 10 minutes",
					},
					Rows: []models.Row{{Countdown: "4 min", Destination: "Riverside", Minutes: 4.2, Live: true}},
				}},
			},
		},
	})
	s.UpdateGroup(models.GroupBoard{
		Name:  "bikes",
		Title: "Blue Bikes",
		Panels: []models.Panel{
			{ID: "bluebike-ledgemere", Kind: "bike", Name: "Chestnut Hill Ave", Bikes: &models.BikeAvailability{Classic: 3, Ebike: 1, Total: 4}},
		},
		UpdatedAt: time.Date(2025, 3, 1, 17, 4, 5, 0, time.UTC),
	})
	return &MockClient{store: s}
}

func (m *MockClient) GetBoard() (models.Board, error) {
	return m.store.GetBoard(), nil
}

func (m *MockClient) GetGroup(name string) (models.GroupBoard, error) {
	return m.store.GetGroup(name)
}

func (m *MockClient) GetPanels(ids []string) ([]models.Panel, error) {
	return m.store.GetPanels(ids)
}

func (m *MockClient) GetAlerts() ([]models.Banner, error) {
	return m.store.GetAlerts(), nil
}

func (m *MockClient) GetLastUpdate() time.Time {
	return m.store.GetLastUpdate()
}

func (m *MockClient) RefreshInterval() time.Duration {
	return 15 * time.Second
}

func (m *MockClient) Location() *time.Location {
	return time.UTC
}

func newTestRouter(client *MockClient) http.Handler {
	r := mux.NewRouter()
	NewHandler(client).RegisterRoutes(r)
	return LoggingMiddleware(CORS(r))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestBoardEndpoint(t *testing.T) {
	h := newTestRouter(newMockClient())

	rec := get(t, h, "/api/board")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Data    models.Board `json:"data"`
		Updated string       `json:"updated"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Data.Groups, 2)
	assert.Equal(t, "green", resp.Data.Groups[0].Name)
	assert.Equal(t, "bikes", resp.Data.Groups[1].Name)
	assert.Equal(t, "2025-03-01T17:04:05Z", resp.Updated)
}

func TestGroupEndpoint(t *testing.T) {
	h := newTestRouter(newMockClient())

	rec := get(t, h, "/api/groups/bikes")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.GroupBoard `json:"data"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Data.Panels, 1)
	assert.Equal(t, 4, resp.Data.Panels[0].Bikes.Total)

	rec = get(t, h, "/api/groups/ferries")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	assert.Contains(t, errResp.Error, "ferries")
}

func TestPanelsEndpoint(t *testing.T) {
	h := newTestRouter(newMockClient())

	rec := get(t, h, "/api/panels/reservoir,%20bluebike-ledgemere,unknown")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Panel `json:"data"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "reservoir", resp.Data[0].ID)
	assert.Equal(t, "bluebike-ledgemere", resp.Data[1].ID)
	assert.False(t, resp.Data[0].Unavailable)

	rec = get(t, h, "/api/panels/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanelJSONFieldNames(t *testing.T) {
	h := newTestRouter(newMockClient())

	rec := get(t, h, "/api/panels/reservoir")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data_unavailable":false`)
}

func TestAlertsEndpoint(t *testing.T) {
	h := newTestRouter(newMockClient())

	rec := get(t, h, "/api/alerts")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Banner `json:"data"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "delay", resp.Data[0].Effect)
	assert.True(t, resp.Data[0].High)
}

func TestAlertsEndpointEmpty(t *testing.T) {
	client := &MockClient{store: store.NewStore(nil)}
	h := newTestRouter(client)

	rec := get(t, h, "/api/alerts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(&MockClient{store: store.NewStore(nil)}), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.LastUpdate)
}

func TestIndexRendersHTML(t *testing.T) {
	rec := get(t, newTestRouter(newMockClient()), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	body := rec.Body.String()
	assert.Contains(t, body, `content="15"`)
	assert.Contains(t, body, "Reservoir")
	assert.Contains(t, body, "Riverside")
	assert.Contains(t, body, "Delays of about 10 minutes")
}

func TestCORS(t *testing.T) {
	h := newTestRouter(newMockClient())

	req := httptest.NewRequest(http.MethodOptions, "/api/board", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/board", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingMiddlewareKeepsStatus(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestAccessLogCoversUnmatchedRoutes(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	defer func() { log.Logger = prev }()

	h := newTestRouter(newMockClient())

	rec := get(t, h, "/api/nothing-here")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/board", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var lines []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "/api/nothing-here", lines[0]["path"])
	assert.EqualValues(t, http.StatusNotFound, lines[0]["status"])
	assert.Equal(t, http.MethodPost, lines[1]["method"])
	assert.EqualValues(t, http.StatusMethodNotAllowed, lines[1]["status"])
}
