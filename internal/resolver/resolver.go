// Package resolver orchestrates a search request: validate the query,
// filter the corpus by language, attempt semantic ranking when available,
// and fall back to lexical matching. Each request is a stateless unit of
// work over the immutable corpus handle.
package resolver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ShivaAryal/constitution-search/internal/corpus"
	"github.com/ShivaAryal/constitution-search/internal/lexical"
	"github.com/ShivaAryal/constitution-search/internal/semantic"
	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
	"github.com/ShivaAryal/constitution-search/pkg/logger"
	"github.com/ShivaAryal/constitution-search/pkg/tracing"
)

// Query is a single search request.
type Query struct {
	Question string `json:"question"`
	Language string `json:"language"`
}

// Result is the public result shape. Ranking scores are internal ordering
// detail and never exposed.
type Result struct {
	PartNumber   int    `json:"partNumber"`
	PartTitle    string `json:"partTitle"`
	ArticleTitle string `json:"articleTitle"`
	Language     string `json:"language"`
}

// Strategy names the matcher that produced the results.
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyLexical  Strategy = "lexical"
)

// Resolution is the outcome of a resolved query. An empty Results slice is a
// valid, successful outcome.
type Resolution struct {
	Results         []Result `json:"results"`
	Strategy        Strategy `json:"-"`
	FellBack        bool     `json:"-"`
	EmbeddingFailed bool     `json:"-"`
}

// SemanticRanker is the optional embedding-based strategy.
type SemanticRanker interface {
	Rank(ctx context.Context, question string, candidates []corpus.Record) ([]semantic.Match, error)
}

// LexicalSearcher is the always-available fallback strategy.
type LexicalSearcher interface {
	Search(question string, candidates []corpus.Record) []lexical.Match
}

// Resolver wires the corpus and the two strategies together.
type Resolver struct {
	corpus    *corpus.Corpus
	languages []string
	semantic  SemanticRanker
	lexical   LexicalSearcher
	logger    *slog.Logger
}

// New creates a Resolver. semanticRanker may be nil, which disables the
// semantic attempt entirely (lexical-only deployment).
func New(c *corpus.Corpus, languages []string, semanticRanker SemanticRanker, lexicalSearcher LexicalSearcher) *Resolver {
	return &Resolver{
		corpus:    c,
		languages: languages,
		semantic:  semanticRanker,
		lexical:   lexicalSearcher,
		logger:    logger.WithComponent("query-resolver"),
	}
}

// Resolve runs the query through validation, language filtering, the
// semantic attempt, and the lexical fallback. Only validation can fail the
// request; a semantic failure downgrades to the fallback.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Resolution, error) {
	log := logger.FromContext(ctx)

	language, err := r.validate(q)
	if err != nil {
		return nil, err
	}

	candidates := r.corpus.ByLanguage(language)
	resolution := &Resolution{Results: []Result{}}

	semanticAttempted := false
	if r.semantic != nil && hasEmbeddings(candidates) {
		semanticAttempted = true
		spanCtx, span := tracing.StartChildSpan(ctx, "semantic-rank")
		matches, err := r.semantic.Rank(spanCtx, q.Question, candidates)
		span.End()
		if err != nil {
			// Never fatal: the lexical fallback still answers.
			resolution.EmbeddingFailed = true
			log.Warn("semantic attempt failed, falling back to lexical",
				"language", language,
				"error", err,
			)
		} else {
			for _, match := range matches {
				resolution.Results = append(resolution.Results, toResult(match.Record))
			}
		}
	}

	if len(resolution.Results) > 0 {
		resolution.Strategy = StrategySemantic
		return resolution, nil
	}

	_, span := tracing.StartChildSpan(ctx, "lexical-search")
	matches := r.lexical.Search(q.Question, candidates)
	span.End()
	for _, match := range matches {
		resolution.Results = append(resolution.Results, toResult(match.Record))
	}
	resolution.Strategy = StrategyLexical
	resolution.FellBack = semanticAttempted
	return resolution, nil
}

func (r *Resolver) validate(q Query) (string, error) {
	if q.Question == "" || q.Language == "" {
		return "", pkgerrors.New(pkgerrors.ErrMissingFields, http.StatusBadRequest,
			"question and language are required")
	}
	language, ok := NormalizeLanguage(q.Language, r.languages)
	if !ok {
		return "", pkgerrors.Newf(pkgerrors.ErrInvalidLanguage, http.StatusBadRequest,
			"language %q is not supported (supported: %v)", q.Language, r.languages)
	}
	return language, nil
}

func toResult(rec corpus.Record) Result {
	return Result{
		PartNumber:   rec.PartNumber,
		PartTitle:    rec.PartTitle,
		ArticleTitle: rec.ArticleTitle,
		Language:     rec.Language,
	}
}

func hasEmbeddings(records []corpus.Record) bool {
	for _, rec := range records {
		if len(rec.Embedding) > 0 {
			return true
		}
	}
	return false
}
