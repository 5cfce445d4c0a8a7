package corpus

import (
	"errors"
	"testing"

	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
)

func validRecords() []Record {
	return []Record{
		{PartNumber: 1, PartTitle: "Preliminary", ArticleTitle: "Constitution as the fundamental law", Language: "English"},
		{PartNumber: 3, PartTitle: "Fundamental Rights and Duties", ArticleTitle: "Right to Equality", Language: "English"},
		{PartNumber: 3, PartTitle: "Fundamental Rights and Duties", ArticleTitle: "Right to Freedom", Language: "English"},
		{PartNumber: 1, PartTitle: "प्रारम्भिक", ArticleTitle: "संविधान मूल कानून", Language: "Nepali"},
	}
}

func TestNewRejectsMalformedRecords(t *testing.T) {
	tests := []struct {
		name   string
		record Record
	}{
		{"zero part number", Record{PartTitle: "P", ArticleTitle: "A", Language: "English"}},
		{"negative part number", Record{PartNumber: -2, PartTitle: "P", ArticleTitle: "A", Language: "English"}},
		{"empty part title", Record{PartNumber: 1, ArticleTitle: "A", Language: "English"}},
		{"empty article title", Record{PartNumber: 1, PartTitle: "P", Language: "English"}},
		{"empty language", Record{PartNumber: 1, PartTitle: "P", ArticleTitle: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := append(validRecords(), tt.record)
			if _, err := New("", 0, records); !errors.Is(err, pkgerrors.ErrCorpusLoad) {
				t.Fatalf("expected ErrCorpusLoad, got %v", err)
			}
		})
	}
}

func TestNewRejectsMixedDimensions(t *testing.T) {
	records := []Record{
		{PartNumber: 1, PartTitle: "P", ArticleTitle: "A", Language: "English", Embedding: []float32{1, 0, 0}},
		{PartNumber: 1, PartTitle: "P", ArticleTitle: "B", Language: "English", Embedding: []float32{1, 0}},
	}
	if _, err := New("test-model", 0, records); !errors.Is(err, pkgerrors.ErrCorpusLoad) {
		t.Fatalf("expected ErrCorpusLoad, got %v", err)
	}
}

func TestNewInfersDimension(t *testing.T) {
	records := []Record{
		{PartNumber: 1, PartTitle: "P", ArticleTitle: "A", Language: "English", Embedding: []float32{1, 0, 0}},
	}
	c, err := New("test-model", 0, records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", c.Dimension())
	}
	if c.Model() != "test-model" {
		t.Errorf("Model() = %q, want test-model", c.Model())
	}
}

func TestByLanguage(t *testing.T) {
	c, err := New("", 0, validRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	english := c.ByLanguage("English")
	if len(english) != 3 {
		t.Fatalf("ByLanguage(English) returned %d records, want 3", len(english))
	}
	for _, rec := range english {
		if rec.Language != "English" {
			t.Errorf("ByLanguage(English) leaked record in %q", rec.Language)
		}
	}

	if got := c.ByLanguage("French"); len(got) != 0 {
		t.Errorf("ByLanguage(French) returned %d records, want 0", len(got))
	}
}

func TestLanguageCounts(t *testing.T) {
	c, err := New("", 0, validRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := c.LanguageCounts()
	if counts["English"] != 3 || counts["Nepali"] != 1 {
		t.Errorf("LanguageCounts() = %v, want English:3 Nepali:1", counts)
	}
}

func TestHasEmbeddings(t *testing.T) {
	records := validRecords()
	records[0].Embedding = []float32{0.5, 0.5}
	c, err := New("test-model", 0, records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.HasEmbeddings("English") {
		t.Error("HasEmbeddings(English) = false, want true")
	}
	if c.HasEmbeddings("Nepali") {
		t.Error("HasEmbeddings(Nepali) = true, want false")
	}
}
