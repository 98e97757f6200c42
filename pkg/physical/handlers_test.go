package physical

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbaas/databaseinfra/pkg/cache"
)

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestListEnginesEndpoint(t *testing.T) {
	router := Router(setupSeededStore(t), nil, nil)

	rec := doGet(t, router, "/engine/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var engines []optionResponse
	decodeBody(t, rec, &engines)
	assert.Equal(t, []optionResponse{
		{ID: 1, Name: "mysql_5.6"},
		{ID: 2, Name: "mongodb_2.4"},
		{ID: 3, Name: "redis_2.8"},
	}, engines)
}

func TestListPlansEndpoint(t *testing.T) {
	router := Router(setupSeededStore(t), nil, nil)

	tests := []struct {
		name      string
		target    string
		wantPlans []optionResponse
		wantError string
	}{
		{
			name:      "plans of engine",
			target:    "/plan/?engine_id=1",
			wantPlans: []optionResponse{{ID: 6, Name: "large"}, {ID: 5, Name: "small"}},
		},
		{
			name:      "engine without plans",
			target:    "/plan/?engine_id=3",
			wantPlans: []optionResponse{},
		},
		{
			name:      "missing engine",
			target:    "/plan/",
			wantError: "engine required",
		},
		{
			name:      "none sentinel",
			target:    "/plan/?engine_id=none",
			wantError: "engine required",
		},
		{
			name:      "malformed engine",
			target:    "/plan/?engine_id=abc",
			wantError: `invalid engine id "abc"`,
		},
		{
			name:      "unknown engine",
			target:    "/plan/?engine_id=42",
			wantError: "engine 42 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(t, router, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)

			if tt.wantError != "" {
				var body map[string]string
				decodeBody(t, rec, &body)
				assert.Equal(t, tt.wantError, body["error"])
				assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
				return
			}
			var plans []optionResponse
			decodeBody(t, rec, &plans)
			assert.Equal(t, tt.wantPlans, plans)
		})
	}
}

func TestGetPlanEndpoint(t *testing.T) {
	router := Router(setupSeededStore(t), nil, nil)

	rec := doGet(t, router, "/plan/6/")
	require.Equal(t, http.StatusOK, rec.Code)

	var plan planDetailResponse
	decodeBody(t, rec, &plan)
	assert.Equal(t, uint(6), plan.ID)
	assert.Equal(t, "large", plan.Name)
	assert.Equal(t, "dedicated hosts", plan.Description)
	assert.True(t, plan.IsActive)
	assert.Equal(t, []optionResponse{{ID: 10, Name: "prod"}}, plan.Environments)
}

func TestGetPlanEndpointErrors(t *testing.T) {
	router := Router(setupSeededStore(t), nil, nil)

	tests := []struct {
		target    string
		wantError string
	}{
		{target: "/plan/99/", wantError: "plan 99 not found"},
		{target: "/plan/x/", wantError: `invalid plan id "x"`},
		{target: "/plan/0/", wantError: `invalid plan id "0"`},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := doGet(t, router, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]string
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestStorageFailureIsServerError(t *testing.T) {
	store := setupSeededStore(t)
	sqlDB, err := store.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	router := Router(store, nil, nil)

	rec := doGet(t, router, "/plan/?engine_id=1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Contains(t, body["error"], "failed to list plans")

	rec = doGet(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := Router(setupSeededStore(t), nil, nil)

	rec := doGet(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())

	rec = doGet(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestRouterCachesPlanResponses(t *testing.T) {
	store := setupSeededStore(t)
	cm := cache.NewCacheManager(cache.DefaultCacheConfig())
	router := Router(store, cm, nil)

	rec := doGet(t, router, "/plan/?engine_id=1")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = doGet(t, router, "/plan/?engine_id=1")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = doGet(t, router, "/plan/5/")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = doGet(t, router, "/plan/5/")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	// Error payloads are not replayed.
	doGet(t, router, "/plan/99/")
	rec = doGet(t, router, "/plan/99/")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	cm.InvalidateAll()
	rec = doGet(t, router, "/plan/5/")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = doGet(t, router, "/plan/?engine_id=1")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestOpenDatabase(t *testing.T) {
	db, err := OpenDatabase("sqlite", ":memory:")
	require.NoError(t, err)
	assert.NoError(t, NewStore(db).Ping())

	_, err = OpenDatabase("oracle", "dsn")
	assert.ErrorContains(t, err, "unknown database type")

	_, err = OpenDatabase("sqlite", "")
	assert.ErrorContains(t, err, "DSN is required")
}
