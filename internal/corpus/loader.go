package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
)

// fileEnvelope is the on-disk corpus layout written by embedtool. Model and
// Dimension record the identity of the embedding model so a query-time
// mismatch is caught at load instead of silently producing meaningless
// similarity scores.
type fileEnvelope struct {
	Model     string   `json:"model"`
	Dimension int      `json:"dimension"`
	Records   []Record `json:"records"`
}

// LoadFile reads the corpus from a JSON file. Two layouts are accepted: the
// envelope {model, dimension, records} and a bare record array (the legacy
// layout, which carries no model identity and is therefore only valid for a
// lexical-only deployment).
//
// wantModel is the embedding model configured for query time, or "" when the
// semantic matcher is disabled. A non-empty wantModel must match the model
// recorded in the corpus.
func LoadFile(path string, wantModel string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", pkgerrors.ErrCorpusLoad, path, err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", pkgerrors.ErrCorpusLoad, path)
	}

	var env fileEnvelope
	if trimmed[0] == '[' {
		// Legacy bare-array layout.
		if err := json.Unmarshal(data, &env.Records); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", pkgerrors.ErrCorpusLoad, path, err)
		}
	} else {
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", pkgerrors.ErrCorpusLoad, path, err)
		}
	}

	if wantModel != "" && env.Model != wantModel {
		return nil, fmt.Errorf("%w: corpus was embedded with model %q but query-time model is %q",
			pkgerrors.ErrCorpusLoad, env.Model, wantModel)
	}

	c, err := New(env.Model, env.Dimension, env.Records)
	if err != nil {
		return nil, err
	}
	slog.Info("corpus loaded",
		"source", "file",
		"path", path,
		"records", c.Len(),
		"model", c.Model(),
		"dimension", c.Dimension(),
	)
	return c, nil
}
