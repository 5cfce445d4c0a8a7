// Package semantic ranks corpus records against a question by cosine
// similarity between a query-time embedding and the precomputed corpus
// vectors. The whole component is optional: a deployment without an
// embedding model runs lexical-only and never constructs a Matcher.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ShivaAryal/constitution-search/internal/corpus"
	"github.com/ShivaAryal/constitution-search/pkg/config"
	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
	"github.com/ShivaAryal/constitution-search/pkg/resilience"
)

// Match pairs a corpus record with its cosine similarity to the question.
type Match struct {
	Record     corpus.Record
	Similarity float64
}

// EmbedderFactory constructs the embedder on first use. Construction may
// load a model into memory, so it runs at most once per process.
type EmbedderFactory func() (Embedder, error)

// Matcher embeds questions and ranks records by similarity, applying the
// top-K and relevance-floor policy.
type Matcher struct {
	cfg     config.SearchConfig
	factory EmbedderFactory
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger

	once     sync.Once
	embedder Embedder
	initErr  error
}

// New creates a Matcher. The embedder is constructed lazily on the first
// Rank call; concurrent first requests share a single initialization.
func New(cfg config.SearchConfig, factory EmbedderFactory) *Matcher {
	return &Matcher{
		cfg:     cfg,
		factory: factory,
		breaker: resilience.NewCircuitBreaker("embedder", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "semantic-matcher"),
	}
}

func (m *Matcher) init() (Embedder, error) {
	m.once.Do(func() {
		m.embedder, m.initErr = m.factory()
		if m.initErr != nil {
			m.logger.Error("embedder initialization failed", "error", m.initErr)
		}
	})
	return m.embedder, m.initErr
}

// Rank embeds the question and returns the language-filtered records ranked
// by similarity, truncated to the top K and filtered by the relevance floor.
// Every returned error is recoverable: the resolver falls back to lexical
// matching instead of failing the request.
func (m *Matcher) Rank(ctx context.Context, question string, candidates []corpus.Record) ([]Match, error) {
	embedder, err := m.init()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrEmbedding, err)
	}

	var vector []float32
	embed := func() error {
		return resilience.WithTimeout(ctx, m.cfg.Semantic.Timeout, "embed-question", func(ctx context.Context) error {
			v, err := embedder.EmbedQuery(ctx, question)
			if err != nil {
				return err
			}
			vector = v
			return nil
		})
	}
	// The breaker keeps a flapping embedding endpoint from slowing every
	// request down to its timeout; while open, queries go straight to the
	// lexical fallback.
	if err := m.breaker.Execute(embed); err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrEmbedding, err)
	}

	matches, err := RankByVector(vector, candidates, m.cfg.MaxResults, m.cfg.SimilarityFloor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrEmbedding, err)
	}
	m.logger.Debug("semantic ranking completed",
		"candidates", len(candidates),
		"matches", len(matches),
	)
	return matches, nil
}

// RankByVector scores every candidate carrying an embedding against the
// query vector, sorts descending by similarity, truncates to the top K, and
// then drops matches at or below the relevance floor. Candidates without a
// vector, with a mismatched dimension, or with zero norm are skipped, never
// fatal.
func RankByVector(query []float32, candidates []corpus.Record, topK int, floor float64) ([]Match, error) {
	var queryNorm float64
	for _, v := range query {
		queryNorm += float64(v) * float64(v)
	}
	if len(query) == 0 || queryNorm == 0 {
		return nil, ErrZeroVector
	}

	matches := make([]Match, 0, len(candidates))
	for _, rec := range candidates {
		if len(rec.Embedding) == 0 {
			continue
		}
		similarity, err := Cosine(query, rec.Embedding)
		if err != nil {
			slog.Debug("skipping record in semantic ranking",
				"article", rec.ArticleTitle,
				"error", err,
			)
			continue
		}
		matches = append(matches, Match{Record: rec, Similarity: similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	// The floor applies after truncation: a top-K entry below the floor is
	// discarded, not replaced by the next candidate.
	filtered := matches[:0]
	for _, match := range matches {
		if match.Similarity > floor {
			filtered = append(filtered, match)
		}
	}
	return filtered, nil
}
