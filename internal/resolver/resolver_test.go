package resolver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ShivaAryal/constitution-search/internal/corpus"
	"github.com/ShivaAryal/constitution-search/internal/lexical"
	"github.com/ShivaAryal/constitution-search/internal/semantic"
	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
)

var supportedLanguages = []string{"English", "Nepali"}

type spySemanticRanker struct {
	calls   int
	matches []semantic.Match
	err     error
}

func (s *spySemanticRanker) Rank(ctx context.Context, question string, candidates []corpus.Record) ([]semantic.Match, error) {
	s.calls++
	return s.matches, s.err
}

type spyLexicalSearcher struct {
	calls   int
	matches []lexical.Match
}

func (s *spyLexicalSearcher) Search(question string, candidates []corpus.Record) []lexical.Match {
	s.calls++
	return s.matches
}

func testCorpus(t *testing.T, withEmbeddings bool) *corpus.Corpus {
	t.Helper()
	records := []corpus.Record{
		{PartNumber: 3, PartTitle: "Fundamental Rights and Duties", ArticleTitle: "Right to Equality", Language: "English"},
		{PartNumber: 3, PartTitle: "Fundamental Rights and Duties", ArticleTitle: "Right to Freedom", Language: "English"},
		{PartNumber: 3, PartTitle: "मौलिक हक र कर्तव्य", ArticleTitle: "समानताको हक", Language: "Nepali"},
	}
	model := ""
	if withEmbeddings {
		model = "test-model"
		for i := range records {
			records[i].Embedding = []float32{1, 0}
		}
	}
	c, err := corpus.New(model, 0, records)
	if err != nil {
		t.Fatalf("building corpus: %v", err)
	}
	return c
}

func semanticMatchFor(c *corpus.Corpus) semantic.Match {
	return semantic.Match{Record: c.ByLanguage("English")[0], Similarity: 0.9}
}

func TestResolveRejectsMissingFields(t *testing.T) {
	r := New(testCorpus(t, false), supportedLanguages, nil, &spyLexicalSearcher{})

	tests := []struct {
		name  string
		query Query
	}{
		{"empty question", Query{Language: "English"}},
		{"empty language", Query{Question: "equality"}},
		{"both empty", Query{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.query)
			if !errors.Is(err, pkgerrors.ErrMissingFields) {
				t.Fatalf("expected ErrMissingFields, got %v", err)
			}
			if status := pkgerrors.HTTPStatusCode(err); status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
		})
	}
}

func TestResolveRejectsUnsupportedLanguage(t *testing.T) {
	r := New(testCorpus(t, false), supportedLanguages, nil, &spyLexicalSearcher{})

	_, err := r.Resolve(context.Background(), Query{Question: "equality", Language: "French"})
	if !errors.Is(err, pkgerrors.ErrInvalidLanguage) {
		t.Fatalf("expected ErrInvalidLanguage, got %v", err)
	}
	if status := pkgerrors.HTTPStatusCode(err); status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestResolveNormalizesLanguageCase(t *testing.T) {
	c := testCorpus(t, false)
	lex := &spyLexicalSearcher{matches: []lexical.Match{{Record: c.ByLanguage("English")[0]}}}
	r := New(c, supportedLanguages, nil, lex)

	res, err := r.Resolve(context.Background(), Query{Question: "equality", Language: "english"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].Language != "English" {
		t.Errorf("results = %+v, want one result with canonical language English", res.Results)
	}
}

func TestResolveSemanticSuccessSkipsLexical(t *testing.T) {
	c := testCorpus(t, true)
	sem := &spySemanticRanker{matches: []semantic.Match{semanticMatchFor(c)}}
	lex := &spyLexicalSearcher{}
	r := New(c, supportedLanguages, sem, lex)

	res, err := r.Resolve(context.Background(), Query{Question: "equality", Language: "English"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != StrategySemantic {
		t.Errorf("strategy = %q, want semantic", res.Strategy)
	}
	if res.FellBack || res.EmbeddingFailed {
		t.Errorf("unexpected fallback flags: %+v", res)
	}
	if sem.calls != 1 || lex.calls != 0 {
		t.Errorf("semantic called %d times, lexical %d times; want 1 and 0", sem.calls, lex.calls)
	}
}

func TestResolveFallsBackOnSemanticError(t *testing.T) {
	c := testCorpus(t, true)
	sem := &spySemanticRanker{err: pkgerrors.ErrEmbedding}
	lex := &spyLexicalSearcher{matches: []lexical.Match{{Record: c.ByLanguage("English")[1]}}}
	r := New(c, supportedLanguages, sem, lex)

	res, err := r.Resolve(context.Background(), Query{Question: "freedom", Language: "English"})
	if err != nil {
		t.Fatalf("semantic failure must not fail the request, got %v", err)
	}
	if res.Strategy != StrategyLexical || !res.FellBack || !res.EmbeddingFailed {
		t.Errorf("resolution = %+v, want lexical with fallback and failure flags", res)
	}
	if len(res.Results) != 1 || res.Results[0].ArticleTitle != "Right to Freedom" {
		t.Errorf("results = %+v, want the lexical match", res.Results)
	}
}

func TestResolveFallsBackOnEmptySemanticResults(t *testing.T) {
	c := testCorpus(t, true)
	sem := &spySemanticRanker{} // no matches above the floor
	lex := &spyLexicalSearcher{matches: []lexical.Match{{Record: c.ByLanguage("English")[0]}}}
	r := New(c, supportedLanguages, sem, lex)

	res, err := r.Resolve(context.Background(), Query{Question: "equality", Language: "English"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != StrategyLexical || !res.FellBack {
		t.Errorf("resolution = %+v, want lexical fallback", res)
	}
	if res.EmbeddingFailed {
		t.Error("an empty semantic result is not an embedding failure")
	}
	if lex.calls != 1 {
		t.Errorf("lexical called %d times, want 1", lex.calls)
	}
}

func TestResolveSkipsSemanticWithoutEmbeddings(t *testing.T) {
	c := testCorpus(t, false)
	sem := &spySemanticRanker{}
	lex := &spyLexicalSearcher{}
	r := New(c, supportedLanguages, sem, lex)

	res, err := r.Resolve(context.Background(), Query{Question: "equality", Language: "English"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sem.calls != 0 {
		t.Errorf("semantic attempted %d times on a vectorless corpus, want 0", sem.calls)
	}
	if res.Strategy != StrategyLexical || res.FellBack {
		t.Errorf("resolution = %+v, want lexical without fallback", res)
	}
}

func TestResolveEmptyResultsIsSuccess(t *testing.T) {
	r := New(testCorpus(t, false), supportedLanguages, nil, &spyLexicalSearcher{})

	res, err := r.Resolve(context.Background(), Query{Question: "zzzzz", Language: "Nepali"})
	if err != nil {
		t.Fatalf("zero matches must not be an error, got %v", err)
	}
	if res.Results == nil {
		t.Fatal("Results must be an empty slice, not nil, so it encodes as []")
	}
	if len(res.Results) != 0 {
		t.Errorf("got %d results, want 0", len(res.Results))
	}
}
