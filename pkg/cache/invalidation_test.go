package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCacheManager(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{"NewCacheManagerDisabled", testNewCacheManagerDisabled},
		{"NewCacheManagerNilConfig", testNewCacheManagerNilConfig},
		{"InvalidateAllClearsBothCaches", testInvalidateAllClearsBothCaches},
		{"NilCacheManagerPassesThrough", testNilCacheManagerPassesThrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.fn)
	}
}

func testManager() *CacheManager {
	return NewCacheManager(&CacheConfig{
		Enabled:   true,
		ListTTL:   5 * time.Second,
		DetailTTL: 5 * time.Second,
		MaxSize:   100,
	})
}

func testNewCacheManagerDisabled(t *testing.T) {
	if cm := NewCacheManager(&CacheConfig{Enabled: false}); cm != nil {
		t.Fatal("expected nil CacheManager when disabled")
	}
}

func testNewCacheManagerNilConfig(t *testing.T) {
	if cm := NewCacheManager(nil); cm != nil {
		t.Fatal("expected nil CacheManager for nil config")
	}
}

func testInvalidateAllClearsBothCaches(t *testing.T) {
	cm := testManager()
	cm.details.Set("/plan/5/", []byte(`{}`))
	cm.lists.Set("/engine/", []byte(`[]`))

	cm.InvalidateAll()

	if cm.details.Size() != 0 || cm.lists.Size() != 0 {
		t.Fatal("expected both caches to be empty")
	}
}

func testNilCacheManagerPassesThrough(t *testing.T) {
	var cm *CacheManager
	cm.InvalidateAll()

	calls := 0
	h := cm.ListMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/engine/", nil))
		if rec.Header().Get("X-Cache") != "" {
			t.Fatal("expected no X-Cache header without a cache")
		}
	}
	if calls != 2 {
		t.Fatalf("expected handler called twice, got %d", calls)
	}
}
