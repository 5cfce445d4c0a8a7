package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/ShivaAryal/constitution-search/internal/corpus"
	"github.com/ShivaAryal/constitution-search/pkg/config"
	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.vector, s.err
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, s.err
}

func rankingConfig() config.SearchConfig {
	return config.SearchConfig{
		MaxResults:      5,
		SimilarityFloor: 0.5,
		Semantic:        config.SemanticConfig{Enabled: true, Model: "test-model"},
	}
}

func embeddedRecord(n int, title string, vec []float32) corpus.Record {
	return corpus.Record{
		PartNumber:   n,
		PartTitle:    "Fundamental Rights and Duties",
		ArticleTitle: title,
		Language:     "English",
		Embedding:    vec,
	}
}

func TestRankByVectorOrdersBySimilarity(t *testing.T) {
	query := []float32{1, 0}
	candidates := []corpus.Record{
		embeddedRecord(1, "low", []float32{0.6, 0.8}),   // 0.6
		embeddedRecord(2, "high", []float32{1, 0}),      // 1.0
		embeddedRecord(3, "mid", []float32{0.9, 0.435}), // ~0.9
	}

	matches, err := RankByVector(query, candidates, 5, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	want := []string{"high", "mid", "low"}
	for i, title := range want {
		if matches[i].Record.ArticleTitle != title {
			t.Errorf("match %d = %q, want %q", i, matches[i].Record.ArticleTitle, title)
		}
	}
}

func TestRankByVectorAppliesFloorAfterTruncation(t *testing.T) {
	query := []float32{1, 0}
	// Six candidates above the floor; the seventh is below it. Truncation to
	// five happens first, so the below-floor record never sneaks in and a
	// below-floor record inside the top five would simply be dropped.
	candidates := []corpus.Record{
		embeddedRecord(1, "a", []float32{1, 0}),
		embeddedRecord(2, "b", []float32{0.98, 0.2}),
		embeddedRecord(3, "c", []float32{0.95, 0.31}),
		embeddedRecord(4, "d", []float32{0.9, 0.435}),
		embeddedRecord(5, "e", []float32{0.85, 0.53}),
		embeddedRecord(6, "f", []float32{0.8, 0.6}),
		embeddedRecord(7, "g", []float32{0.3, 0.95}),
	}

	matches, err := RankByVector(query, candidates, 5, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 5 {
		t.Fatalf("got %d matches, want 5", len(matches))
	}
	for _, match := range matches {
		if match.Similarity <= 0.5 {
			t.Errorf("match %q has similarity %v at or below the floor", match.Record.ArticleTitle, match.Similarity)
		}
		if match.Record.ArticleTitle == "f" || match.Record.ArticleTitle == "g" {
			t.Errorf("record %q should have been truncated away", match.Record.ArticleTitle)
		}
	}
}

func TestRankByVectorDropsBelowFloorInsideTopK(t *testing.T) {
	query := []float32{1, 0}
	candidates := []corpus.Record{
		embeddedRecord(1, "relevant", []float32{1, 0}),
		embeddedRecord(2, "irrelevant", []float32{0, 1}),
	}

	matches, err := RankByVector(query, candidates, 5, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Record.ArticleTitle != "relevant" {
		t.Fatalf("matches = %+v, want only \"relevant\"", matches)
	}
}

func TestRankByVectorSkipsBadRecords(t *testing.T) {
	query := []float32{1, 0}
	candidates := []corpus.Record{
		embeddedRecord(1, "no vector", nil),
		embeddedRecord(2, "wrong dimension", []float32{1, 0, 0}),
		embeddedRecord(3, "zero norm", []float32{0, 0}),
		embeddedRecord(4, "good", []float32{1, 0}),
	}

	matches, err := RankByVector(query, candidates, 5, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Record.ArticleTitle != "good" {
		t.Fatalf("matches = %+v, want only \"good\"", matches)
	}
}

func TestRankByVectorZeroQueryVector(t *testing.T) {
	if _, err := RankByVector([]float32{0, 0}, nil, 5, 0.5); !errors.Is(err, ErrZeroVector) {
		t.Errorf("expected ErrZeroVector, got %v", err)
	}
}

func TestMatcherRank(t *testing.T) {
	m := New(rankingConfig(), func() (Embedder, error) {
		return &stubEmbedder{vector: []float32{1, 0}}, nil
	})
	candidates := []corpus.Record{embeddedRecord(1, "good", []float32{1, 0})}

	matches, err := m.Rank(context.Background(), "a question", candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
}

func TestMatcherRankFactoryFailure(t *testing.T) {
	calls := 0
	m := New(rankingConfig(), func() (Embedder, error) {
		calls++
		return nil, errors.New("model not found")
	})

	for i := 0; i < 3; i++ {
		if _, err := m.Rank(context.Background(), "q", nil); !errors.Is(err, pkgerrors.ErrEmbedding) {
			t.Fatalf("expected ErrEmbedding, got %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("factory ran %d times, want once", calls)
	}
}

func TestMatcherRankEmbedFailure(t *testing.T) {
	m := New(rankingConfig(), func() (Embedder, error) {
		return &stubEmbedder{err: errors.New("endpoint down")}, nil
	})

	if _, err := m.Rank(context.Background(), "q", nil); !errors.Is(err, pkgerrors.ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}
