package analytics

import "time"

// EventType classifies an analytics event.
type EventType string

const (
	EventSearch     EventType = "search"
	EventCacheHit   EventType = "cache_hit"
	EventCacheMiss  EventType = "cache_miss"
	EventZeroResult EventType = "zero_result"
)

// SearchEvent is published for every resolved search request.
type SearchEvent struct {
	Type            EventType `json:"type"`
	Question        string    `json:"question"`
	Language        string    `json:"language"`
	Strategy        string    `json:"strategy"`
	Returned        int       `json:"returned"`
	FellBack        bool      `json:"fell_back"`
	EmbeddingFailed bool      `json:"embedding_failed"`
	CacheHit        bool      `json:"cache_hit"`
	LatencyMs       int64     `json:"latency_ms"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id"`
}
