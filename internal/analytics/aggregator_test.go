package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func feedEvents(t *testing.T, agg *Aggregator, events []SearchEvent) {
	t.Helper()
	handle := HandleEvent(agg)
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("encoding event: %v", err)
		}
		if err := handle(context.Background(), []byte(event.Type), data); err != nil {
			t.Fatalf("handling event: %v", err)
		}
	}
}

func TestAggregatorCounts(t *testing.T) {
	agg := NewAggregator(nil)
	feedEvents(t, agg, []SearchEvent{
		{Type: EventCacheMiss, Question: "equality", Language: "English", Strategy: "semantic", Returned: 5, LatencyMs: 40, Timestamp: time.Now()},
		{Type: EventCacheHit, Question: "equality", Language: "English", Strategy: "cached", Returned: 5, CacheHit: true, LatencyMs: 2, Timestamp: time.Now()},
		{Type: EventCacheMiss, Question: "citizenship", Language: "Nepali", Strategy: "lexical", Returned: 3, FellBack: true, EmbeddingFailed: true, LatencyMs: 60, Timestamp: time.Now()},
		{Type: EventZeroResult, Question: "weather", Language: "English", Strategy: "lexical", Returned: 0, LatencyMs: 10, Timestamp: time.Now()},
	})

	stats := agg.Stats()
	if stats.TotalSearches != 4 {
		t.Errorf("TotalSearches = %d, want 4", stats.TotalSearches)
	}
	if stats.SearchesByLanguage["English"] != 3 || stats.SearchesByLanguage["Nepali"] != 1 {
		t.Errorf("SearchesByLanguage = %v", stats.SearchesByLanguage)
	}
	if stats.SearchesByStrategy["lexical"] != 2 {
		t.Errorf("SearchesByStrategy = %v", stats.SearchesByStrategy)
	}
	if stats.Fallbacks != 1 || stats.EmbeddingFailures != 1 {
		t.Errorf("Fallbacks = %d, EmbeddingFailures = %d, want 1 and 1", stats.Fallbacks, stats.EmbeddingFailures)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 3 {
		t.Errorf("cache counters = %d hits, %d misses", stats.CacheHits, stats.CacheMisses)
	}
	if stats.ZeroResultCount != 1 {
		t.Errorf("ZeroResultCount = %d, want 1", stats.ZeroResultCount)
	}
	if len(stats.ZeroResultQuestions) != 1 || stats.ZeroResultQuestions[0].Question != "weather" {
		t.Errorf("ZeroResultQuestions = %+v", stats.ZeroResultQuestions)
	}
}

func TestAggregatorTopQuestions(t *testing.T) {
	agg := NewAggregator(nil)
	var events []SearchEvent
	for i := 0; i < 3; i++ {
		events = append(events, SearchEvent{Question: "equality", Language: "English", Strategy: "lexical", Returned: 1})
	}
	events = append(events, SearchEvent{Question: "citizenship", Language: "English", Strategy: "lexical", Returned: 1})
	feedEvents(t, agg, events)

	stats := agg.Stats()
	if len(stats.TopQuestions) != 2 {
		t.Fatalf("got %d top questions, want 2", len(stats.TopQuestions))
	}
	if stats.TopQuestions[0].Question != "equality" || stats.TopQuestions[0].Count != 3 {
		t.Errorf("top question = %+v", stats.TopQuestions[0])
	}
}

func TestAggregatorLatencyPercentiles(t *testing.T) {
	agg := NewAggregator(nil)
	var events []SearchEvent
	for i := 1; i <= 100; i++ {
		events = append(events, SearchEvent{Question: "q", Language: "English", Strategy: "lexical", LatencyMs: int64(i)})
	}
	feedEvents(t, agg, events)

	stats := agg.Stats()
	if stats.AvgLatencyMs != 50.5 {
		t.Errorf("AvgLatencyMs = %v, want 50.5", stats.AvgLatencyMs)
	}
	if stats.P50LatencyMs < 50 || stats.P50LatencyMs > 51 {
		t.Errorf("P50LatencyMs = %d", stats.P50LatencyMs)
	}
	if stats.P95LatencyMs < 95 || stats.P95LatencyMs > 96 {
		t.Errorf("P95LatencyMs = %d", stats.P95LatencyMs)
	}
}

func TestAggregatorIgnoresMalformedEvents(t *testing.T) {
	agg := NewAggregator(nil)
	handle := HandleEvent(agg)
	if err := handle(context.Background(), nil, []byte("not json")); err != nil {
		t.Fatalf("malformed events must be skipped, not retried: %v", err)
	}
	if stats := agg.Stats(); stats.TotalSearches != 0 {
		t.Errorf("TotalSearches = %d, want 0", stats.TotalSearches)
	}
}
