package cache

import "net/http"

// CacheManager holds separate caches for list responses (engines, plans of
// an engine) and plan detail responses, each with its own TTL.
type CacheManager struct {
	lists   *LRUCache
	details *LRUCache
}

// NewCacheManager creates a CacheManager from the given configuration.
// If cfg is nil or disabled, it returns nil; a nil manager is safe to use
// and caches nothing.
func NewCacheManager(cfg *CacheConfig) *CacheManager {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return &CacheManager{
		lists:   NewLRUCache(cfg.MaxSize, cfg.ListTTL),
		details: NewLRUCache(cfg.MaxSize, cfg.DetailTTL),
	}
}

// InvalidateAll clears both caches. The server calls it after reloading the
// catalogue.
func (cm *CacheManager) InvalidateAll() {
	if cm == nil {
		return
	}
	cm.lists.InvalidateAll()
	cm.details.InvalidateAll()
}

// ListMiddleware caches engine and plan list responses. A nil manager
// returns a pass-through middleware.
func (cm *CacheManager) ListMiddleware() func(http.Handler) http.Handler {
	if cm == nil {
		return passThrough
	}
	return CacheMiddleware(cm.lists)
}

// DetailMiddleware caches plan detail responses. A nil manager returns a
// pass-through middleware.
func (cm *CacheManager) DetailMiddleware() func(http.Handler) http.Handler {
	if cm == nil {
		return passThrough
	}
	return CacheMiddleware(cm.details)
}

func passThrough(next http.Handler) http.Handler { return next }
