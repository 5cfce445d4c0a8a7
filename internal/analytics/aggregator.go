package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ShivaAryal/constitution-search/pkg/kafka"
)

// AggregatedStats is the snapshot served by the analytics endpoint and
// persisted by the Store.
type AggregatedStats struct {
	TotalSearches       int64            `json:"total_searches"`
	SearchesByLanguage  map[string]int64 `json:"searches_by_language"`
	SearchesByStrategy  map[string]int64 `json:"searches_by_strategy"`
	Fallbacks           int64            `json:"fallbacks"`
	EmbeddingFailures   int64            `json:"embedding_failures"`
	CacheHits           int64            `json:"cache_hits"`
	CacheMisses         int64            `json:"cache_misses"`
	ZeroResultCount     int64            `json:"zero_result_count"`
	AvgLatencyMs        float64          `json:"avg_latency_ms"`
	P50LatencyMs        int64            `json:"p50_latency_ms"`
	P95LatencyMs        int64            `json:"p95_latency_ms"`
	P99LatencyMs        int64            `json:"p99_latency_ms"`
	TopQuestions        []QuestionCount  `json:"top_questions"`
	ZeroResultQuestions []QuestionCount  `json:"zero_result_questions"`
	QueriesPerMinute    float64          `json:"queries_per_minute"`
}

// QuestionCount pairs a question with how often it was asked.
type QuestionCount struct {
	Question string `json:"question"`
	Count    int64  `json:"count"`
}

// Aggregator consumes search events from Kafka and maintains in-memory
// aggregates.
type Aggregator struct {
	mu                  sync.RWMutex
	totalSearches       int64
	byLanguage          map[string]int64
	byStrategy          map[string]int64
	fallbacks           int64
	embeddingFailures   int64
	cacheHits           int64
	cacheMisses         int64
	zeroResults         int64
	latencies           []int64
	questionCounts      map[string]int64
	zeroResultQuestions map[string]int64
	startTime           time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator fed by the given consumer.
func NewAggregator(consumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		byLanguage:          make(map[string]int64),
		byStrategy:          make(map[string]int64),
		latencies:           make([]int64, 0, 10000),
		questionCounts:      make(map[string]int64),
		zeroResultQuestions: make(map[string]int64),
		startTime:           time.Now(),
		consumer:            consumer,
		logger:              slog.Default().With("component", "analytics-aggregator"),
	}
}

// Start enters the consume loop until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) error {
	a.logger.Info("analytics aggregator starting")
	return a.consumer.Start(ctx)
}

// HandleEvent returns the kafka handler that feeds the aggregator.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		agg.record(event)
		return nil
	}
}

func (a *Aggregator) record(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	a.byLanguage[event.Language]++
	if event.Strategy != "" {
		a.byStrategy[event.Strategy]++
	}
	if event.FellBack {
		a.fallbacks++
	}
	if event.EmbeddingFailed {
		a.embeddingFailures++
	}
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if event.Returned == 0 {
		a.zeroResults++
		a.zeroResultQuestions[event.Question]++
	}
	a.latencies = append(a.latencies, event.LatencyMs)
	a.questionCounts[event.Question]++
}

// Stats returns a snapshot of the current aggregates.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:      a.totalSearches,
		SearchesByLanguage: copyCounts(a.byLanguage),
		SearchesByStrategy: copyCounts(a.byStrategy),
		Fallbacks:          a.fallbacks,
		EmbeddingFailures:  a.embeddingFailures,
		CacheHits:          a.cacheHits,
		CacheMisses:        a.cacheMisses,
		ZeroResultCount:    a.zeroResults,
	}

	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQuestions = topN(a.questionCounts, 10)
	stats.ZeroResultQuestions = topN(a.zeroResultQuestions, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}

	return stats
}

func copyCounts(counts map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QuestionCount {
	result := make([]QuestionCount, 0, len(counts))
	for question, count := range counts {
		result = append(result, QuestionCount{Question: question, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Question < result[j].Question
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
