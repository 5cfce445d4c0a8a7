// Package corpus holds the constitution's searchable records. The corpus is
// loaded once at process start, validated fail-fast, and never mutated
// afterwards; any number of concurrent readers may share a Corpus handle
// without synchronization.
package corpus

import (
	"fmt"

	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
)

// Record is one searchable unit: an article title within a titled part, in a
// specific language. Embedding is optional and only present when the corpus
// was precomputed for semantic search.
type Record struct {
	PartNumber   int       `json:"partNumber"`
	PartTitle    string    `json:"partTitle"`
	ArticleTitle string    `json:"articleTitle"`
	Language     string    `json:"language"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

// Corpus is an immutable set of records plus the identity of the embedding
// model that produced the stored vectors. Model is empty for a lexical-only
// corpus.
type Corpus struct {
	model     string
	dimension int
	records   []Record
}

// New validates the records and builds a Corpus. Validation is fail-fast:
// a single malformed record rejects the whole load so a broken corpus can
// never silently serve degraded search.
func New(model string, dimension int, records []Record) (*Corpus, error) {
	for i, rec := range records {
		if err := validateRecord(rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", pkgerrors.ErrCorpusLoad, i, err)
		}
		if len(rec.Embedding) > 0 {
			if dimension == 0 {
				dimension = len(rec.Embedding)
			}
			if len(rec.Embedding) != dimension {
				return nil, fmt.Errorf("%w: record %d: embedding has %d dimensions, corpus uses %d",
					pkgerrors.ErrCorpusLoad, i, len(rec.Embedding), dimension)
			}
		}
	}
	return &Corpus{model: model, dimension: dimension, records: records}, nil
}

func validateRecord(rec Record) error {
	if rec.PartNumber <= 0 {
		return fmt.Errorf("partNumber must be positive, got %d", rec.PartNumber)
	}
	if rec.PartTitle == "" {
		return fmt.Errorf("partTitle is empty")
	}
	if rec.ArticleTitle == "" {
		return fmt.Errorf("articleTitle is empty")
	}
	if rec.Language == "" {
		return fmt.Errorf("language is empty")
	}
	return nil
}

// Model returns the identity of the embedding model the stored vectors were
// produced with, or "" when the corpus carries no vectors.
func (c *Corpus) Model() string { return c.model }

// Dimension returns the embedding dimension, or 0 for a lexical-only corpus.
func (c *Corpus) Dimension() int { return c.dimension }

// Len returns the total number of records.
func (c *Corpus) Len() int { return len(c.records) }

// ByLanguage returns the records whose language equals the given tag. The
// filter is pure; an unknown tag yields an empty slice, not an error.
func (c *Corpus) ByLanguage(language string) []Record {
	var filtered []Record
	for _, rec := range c.records {
		if rec.Language == language {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// LanguageCounts returns the number of records per language, for health
// checks and metrics.
func (c *Corpus) LanguageCounts() map[string]int {
	counts := make(map[string]int)
	for _, rec := range c.records {
		counts[rec.Language]++
	}
	return counts
}

// HasEmbeddings reports whether at least one record for the language carries
// a vector. Partial coverage is allowed: records without vectors are simply
// invisible to the semantic ranking.
func (c *Corpus) HasEmbeddings(language string) bool {
	for _, rec := range c.records {
		if rec.Language == language && len(rec.Embedding) > 0 {
			return true
		}
	}
	return false
}
