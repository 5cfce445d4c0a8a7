// Package handler exposes the HTTP surface of the search service: the
// search endpoint, the corpus browse endpoints, and cache operations.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ShivaAryal/constitution-search/internal/analytics"
	"github.com/ShivaAryal/constitution-search/internal/cache"
	"github.com/ShivaAryal/constitution-search/internal/resolver"
	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
	"github.com/ShivaAryal/constitution-search/pkg/logger"
	"github.com/ShivaAryal/constitution-search/pkg/metrics"
	"github.com/ShivaAryal/constitution-search/pkg/middleware"
	"github.com/ShivaAryal/constitution-search/pkg/tracing"
)

// QueryResolver resolves a validated search query into ranked results.
type QueryResolver interface {
	Resolve(ctx context.Context, q resolver.Query) (*resolver.Resolution, error)
}

// searchResponse is the wire shape of both success and failure responses.
type searchResponse struct {
	Results []resolver.Result `json:"results"`
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
}

// Handler serves the search endpoint and its operational companions.
type Handler struct {
	resolver  QueryResolver
	cache     *cache.QueryCache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	languages []string
	logger    *slog.Logger
}

// New creates a Handler. cache, collector, and m may each be nil, disabling
// the corresponding concern.
func New(res QueryResolver, queryCache *cache.QueryCache, collector *analytics.Collector, m *metrics.Metrics, languages []string) *Handler {
	return &Handler{
		resolver:  res,
		cache:     queryCache,
		collector: collector,
		metrics:   m,
		languages: languages,
		logger:    logger.WithComponent("search-handler"),
	}
}

// Search handles POST /search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var q resolver.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		h.writeSearchError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, span := tracing.StartSpan(ctx, "search", middleware.GetRequestID(ctx))

	var resolution *resolver.Resolution
	var results []resolver.Result
	var err error
	cacheHit := false

	// Only queries with a recognizable language are worth a cache lookup;
	// everything else goes straight to the resolver for classification.
	language, cacheable := resolver.NormalizeLanguage(q.Language, h.languages)
	if h.cache != nil && cacheable && q.Question != "" {
		results, cacheHit, err = h.cache.GetOrCompute(ctx, q.Question, language, func() ([]resolver.Result, error) {
			res, err := h.resolver.Resolve(ctx, q)
			if err != nil {
				return nil, err
			}
			resolution = res
			return res.Results, nil
		})
	} else {
		resolution, err = h.resolver.Resolve(ctx, q)
		if resolution != nil {
			results = resolution.Results
		}
	}

	latency := time.Since(start)

	if err != nil {
		span.End()
		h.respondError(w, log, q, err)
		return
	}

	strategy := "cached"
	fellBack, embeddingFailed := false, false
	if resolution != nil {
		strategy = string(resolution.Strategy)
		fellBack = resolution.FellBack
		embeddingFailed = resolution.EmbeddingFailed
	}
	span.SetAttr("language", language)
	span.SetAttr("strategy", strategy)
	span.SetAttr("returned", len(results))
	span.End()
	span.Log()

	log.Info("search completed",
		"language", language,
		"strategy", strategy,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.recordMetrics(strategy, len(results), cacheHit, fellBack, embeddingFailed, latency)

	if h.collector != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		if len(results) == 0 {
			eventType = analytics.EventZeroResult
		}
		h.collector.Track(analytics.SearchEvent{
			Type:            eventType,
			Question:        q.Question,
			Language:        language,
			Strategy:        strategy,
			Returned:        len(results),
			FellBack:        fellBack,
			EmbeddingFailed: embeddingFailed,
			CacheHit:        cacheHit,
			LatencyMs:       latency.Milliseconds(),
			Timestamp:       time.Now().UTC(),
			RequestID:       middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, searchResponse{Results: results, Success: true})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cache invalidation failed"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) respondError(w http.ResponseWriter, log *slog.Logger, q resolver.Query, err error) {
	status := pkgerrors.HTTPStatusCode(err)
	message := "internal error"
	if status < http.StatusInternalServerError {
		var appErr *pkgerrors.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		} else {
			message = err.Error()
		}
		log.Warn("search rejected", "language", q.Language, "status", status, "error", err)
	} else {
		// Never leak internals to the caller; the log carries the detail.
		log.Error("search failed", "language", q.Language, "error", err)
	}
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues("none", "error").Inc()
	}
	h.writeSearchError(w, status, message)
}

func (h *Handler) recordMetrics(strategy string, returned int, cacheHit, fellBack, embeddingFailed bool, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	resultType := "hit"
	if returned == 0 {
		resultType = "zero_result"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(strategy, resultType).Inc()

	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
	if fellBack {
		h.metrics.SemanticFallbacks.Inc()
	}
	if embeddingFailed {
		h.metrics.EmbeddingFailures.Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeSearchError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, searchResponse{Results: []resolver.Result{}, Success: false, Error: message})
}
