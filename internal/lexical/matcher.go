// Package lexical implements typo-tolerant matching of a question against
// the corpus title fields. It is the always-available fallback strategy: it
// needs no model, no network, and is fully deterministic.
package lexical

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/ShivaAryal/constitution-search/internal/corpus"
	"github.com/ShivaAryal/constitution-search/pkg/config"
)

// Match pairs a corpus record with its lexical match score (0 exact,
// approaching 1 near the exclusion threshold).
type Match struct {
	Record corpus.Record
	Score  float64
}

// Matcher scores records with bitap fuzzy matching over the partTitle and
// articleTitle fields.
type Matcher struct {
	threshold   float64
	minFragment int
	maxResults  int
	logger      *slog.Logger
}

// New creates a Matcher with the policy values from cfg.
func New(cfg config.SearchConfig) *Matcher {
	return &Matcher{
		threshold:   cfg.FuzzyThreshold,
		minFragment: cfg.MinFragmentLength,
		maxResults:  cfg.MaxResults,
		logger:      slog.Default().With("component", "lexical-matcher"),
	}
}

// Search splits the question into whitespace fragments, drops fragments
// shorter than the minimum length, and scores every candidate by its best
// fragment-field bitap score. Records scoring above the threshold are
// excluded. Results are ordered ascending by score; ties keep corpus order.
func (m *Matcher) Search(question string, candidates []corpus.Record) []Match {
	fragments := m.fragments(question)
	if len(fragments) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, rec := range candidates {
		best := 1.0
		found := false
		for _, field := range []string{rec.PartTitle, rec.ArticleTitle} {
			text := []rune(strings.ToLower(field))
			for _, frag := range fragments {
				score, ok := bitapSearch(text, frag, m.threshold)
				if ok && score < best {
					best = score
					found = true
				}
			}
		}
		if found {
			matches = append(matches, Match{Record: rec, Score: best})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score < matches[j].Score
	})
	if len(matches) > m.maxResults {
		matches = matches[:m.maxResults]
	}

	m.logger.Debug("lexical search completed",
		"fragments", len(fragments),
		"candidates", len(candidates),
		"matches", len(matches),
	)
	return matches
}

// fragments lowercases and splits the question, keeping only fragments long
// enough to carry signal. One- and two-rune fragments never match.
func (m *Matcher) fragments(question string) [][]rune {
	var fragments [][]rune
	for _, word := range strings.Fields(strings.ToLower(question)) {
		runes := []rune(word)
		if len(runes) >= m.minFragment {
			fragments = append(fragments, runes)
		}
	}
	return fragments
}
