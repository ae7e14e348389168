package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dprint/plugins/internal/metrics"
	"github.com/patrickmn/go-cache"
	"go.opencensus.io/stats"
)

type (
	cacheKeyPrefix string
	cacheKey       string
)

const cacheKeyPrefixRequest cacheKeyPrefix = "request"

func (s *Server) getCacheKeyFromRequest(r *http.Request) cacheKey {
	return cacheKey(fmt.Sprintf("%s/%s:%s", cacheKeyPrefixRequest, r.Method, r.URL.EscapedPath()))
}

func (s *Server) getFromCache(ctx context.Context, k cacheKey) (any, bool) {
	val, ok := s.cache.Get(string(k))
	if ok {
		stats.Record(ctx, metrics.CounterCacheHit.M(1))
	}
	return val, ok
}

func (s *Server) setInCache(ctx context.Context, k cacheKey, v any, expiration ...time.Duration) {
	if s.config.DisableRequestCache {
		return
	}
	stats.Record(ctx, metrics.CounterCacheMiss.M(1))
	exp := cache.DefaultExpiration
	if len(expiration) > 0 {
		exp = expiration[0]
	}
	s.cache.Set(string(k), v, exp)
}

func (s *Server) cacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.DisableRequestCache {
			next.ServeHTTP(w, r)
			return
		}
		if k, ok := s.getFromCache(r.Context(), s.getCacheKeyFromRequest(r)); ok {
			w.Header().Set("X-Go-Cache", "HIT")
			s.writePublicJSON(w, r, k)
			return
		}
		next.ServeHTTP(w, r)
	})
}
