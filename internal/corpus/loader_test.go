package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
)

func writeCorpusFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing corpus file: %v", err)
	}
	return path
}

func TestLoadFileEnvelope(t *testing.T) {
	path := writeCorpusFile(t, `{
		"model": "test-model",
		"dimension": 3,
		"records": [
			{"partNumber": 1, "partTitle": "Preliminary", "articleTitle": "Constitution as the fundamental law", "language": "English", "embedding": [0.1, 0.2, 0.3]}
		]
	}`)

	c, err := LoadFile(path, "test-model")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Len() != 1 || c.Model() != "test-model" || c.Dimension() != 3 {
		t.Errorf("loaded corpus = len %d model %q dim %d", c.Len(), c.Model(), c.Dimension())
	}
}

func TestLoadFileLegacyArray(t *testing.T) {
	path := writeCorpusFile(t, `[
		{"partNumber": 1, "partTitle": "Preliminary", "articleTitle": "Constitution as the fundamental law", "language": "English"},
		{"partNumber": 3, "partTitle": "Fundamental Rights and Duties", "articleTitle": "Right to Equality", "language": "English"}
	]`)

	c, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if c.Model() != "" {
		t.Errorf("legacy corpus should carry no model, got %q", c.Model())
	}
}

func TestLoadFileModelMismatch(t *testing.T) {
	path := writeCorpusFile(t, `{
		"model": "old-model",
		"dimension": 2,
		"records": [
			{"partNumber": 1, "partTitle": "P", "articleTitle": "A", "language": "English", "embedding": [1, 0]}
		]
	}`)

	if _, err := LoadFile(path, "new-model"); !errors.Is(err, pkgerrors.ErrCorpusLoad) {
		t.Fatalf("expected ErrCorpusLoad on model mismatch, got %v", err)
	}
}

func TestLoadFileLegacyArrayRejectedWhenModelRequired(t *testing.T) {
	path := writeCorpusFile(t, `[
		{"partNumber": 1, "partTitle": "P", "articleTitle": "A", "language": "English"}
	]`)

	// A bare array carries no model identity, so it can never satisfy a
	// semantic deployment.
	if _, err := LoadFile(path, "test-model"); !errors.Is(err, pkgerrors.ErrCorpusLoad) {
		t.Fatalf("expected ErrCorpusLoad, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), ""); !errors.Is(err, pkgerrors.ErrCorpusLoad) {
		t.Fatalf("expected ErrCorpusLoad, got %v", err)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	path := writeCorpusFile(t, "   \n")
	if _, err := LoadFile(path, ""); !errors.Is(err, pkgerrors.ErrCorpusLoad) {
		t.Fatalf("expected ErrCorpusLoad, got %v", err)
	}
}

func TestLoadFileMalformedJSON(t *testing.T) {
	path := writeCorpusFile(t, `{"records": [`)
	if _, err := LoadFile(path, ""); !errors.Is(err, pkgerrors.ErrCorpusLoad) {
		t.Fatalf("expected ErrCorpusLoad, got %v", err)
	}
}
