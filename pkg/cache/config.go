package cache

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig configures the catalogue response caches.
type CacheConfig struct {
	Enabled bool

	// ListTTL applies to /engine/ and /plan/?engine_id= responses.
	ListTTL time.Duration
	// DetailTTL applies to /plan/{id}/ responses.
	DetailTTL time.Duration

	// MaxSize bounds each of the two caches.
	MaxSize int
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:   true,
		ListTTL:   30 * time.Second,
		DetailTTL: 30 * time.Second,
		MaxSize:   500,
	}
}

// CacheConfigFromEnv overrides the defaults with DBAAS_CACHE_ENABLED,
// DBAAS_CACHE_LIST_TTL, DBAAS_CACHE_DETAIL_TTL and DBAAS_CACHE_MAX_SIZE.
// TTLs take "45s" or a number of seconds. Malformed values are ignored.
func CacheConfigFromEnv() *CacheConfig {
	cfg := DefaultCacheConfig()

	if v := os.Getenv("DBAAS_CACHE_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if d, ok := envTTL("DBAAS_CACHE_LIST_TTL"); ok {
		cfg.ListTTL = d
	}
	if d, ok := envTTL("DBAAS_CACHE_DETAIL_TTL"); ok {
		cfg.DetailTTL = d
	}
	if n, err := strconv.Atoi(os.Getenv("DBAAS_CACHE_MAX_SIZE")); err == nil && n > 0 {
		cfg.MaxSize = n
	}
	return cfg
}

func envTTL(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, true
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
