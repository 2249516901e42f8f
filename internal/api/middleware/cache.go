package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
)

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware provides HTTP response caching for read-heavy portal
// routes. Write endpoints and the live streams are never cached; stale
// entries are dropped by the invalidation service on clinic events.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return &CacheMiddleware{
		cache: cache,
		routeConfigs: map[string]CacheConfig{
			"/api/branches":         {TTLSeconds: 600, Enabled: true},
			"/api/vaccines/catalog": {TTLSeconds: 3600, Enabled: true},
			"/api/veterinarians/":   {TTLSeconds: 60, Enabled: true},
			"/api/patients/":        {TTLSeconds: 120, Enabled: true},
			"/api/drugs/":           {TTLSeconds: 60, Enabled: true},
		},
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := m.generateCacheKey(r)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil && cached != nil {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}

		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
			}
		}
	})
}

// getRouteConfig gets the cache configuration for a route
func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	if config, exists := m.routeConfigs[path]; exists {
		return config
	}

	// Prefix match for dynamic routes (e.g., /api/patients/{id})
	for pattern, config := range m.routeConfigs {
		if strings.HasPrefix(path, pattern) {
			return config
		}
	}

	return CacheConfig{Enabled: false}
}

// generateCacheKey hashes the method, path and query into a fixed-length
// key under the http:cache: prefix the invalidation patterns target
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	key := fmt.Sprintf("%s:%s", r.Method, r.URL.Path)
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	hash := sha256.Sum256([]byte(key))
	return "http:cache:" + r.URL.Path + ":" + hex.EncodeToString(hash[:8])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}

// CacheMiddlewareWithConfig creates a cache middleware with custom config
func CacheMiddlewareWithConfig(cache providers.CacheProvider, configs map[string]CacheConfig) func(http.Handler) http.Handler {
	m := &CacheMiddleware{
		cache:        cache,
		routeConfigs: configs,
	}
	return m.Middleware
}
