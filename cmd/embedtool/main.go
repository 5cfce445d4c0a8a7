// Command embedtool precomputes embedding vectors for the constitution
// corpus. It reads the raw article listing (a JSON array of records without
// vectors), embeds each record's part and article titles, and writes the
// corpus envelope consumed by the search service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ShivaAryal/constitution-search/internal/corpus"
	"github.com/ShivaAryal/constitution-search/internal/semantic"
	"github.com/ShivaAryal/constitution-search/pkg/config"
	"github.com/ShivaAryal/constitution-search/pkg/logger"
	"github.com/ShivaAryal/constitution-search/pkg/resilience"
)

type envelope struct {
	Model     string          `json:"model"`
	Dimension int             `json:"dimension"`
	Records   []corpus.Record `json:"records"`
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	inPath := flag.String("in", "lib/constitution.json", "raw corpus JSON (array of records)")
	outPath := flag.String("out", "lib/embeddings.json", "output corpus envelope")
	batchSize := flag.Int("batch", 64, "records per embedding request")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *inPath, *outPath, *batchSize); err != nil {
		slog.Error("embedtool failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, inPath, outPath string, batchSize int) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}
	var records []corpus.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing %s: %w", inPath, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s contains no records", inPath)
	}

	embedder, err := semantic.NewOpenAIEmbedder(cfg.Search.Semantic)
	if err != nil {
		return err
	}
	slog.Info("embedding corpus",
		"records", len(records),
		"model", cfg.Search.Semantic.Model,
		"base_url", cfg.Search.Semantic.BaseURL,
		"batch_size", batchSize,
	)

	dimension := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		texts := make([]string, 0, end-start)
		for _, rec := range records[start:end] {
			texts = append(texts, embeddingText(rec))
		}

		var vectors [][]float32
		err := resilience.Retry(ctx, "embed-batch", resilience.RetryConfig{MaxAttempts: 3}, func() error {
			var err error
			vectors, err = embedder.EmbedDocuments(ctx, texts)
			return err
		})
		if err != nil {
			return fmt.Errorf("embedding batch at record %d: %w", start, err)
		}
		if len(vectors) != end-start {
			return fmt.Errorf("embedding batch at record %d: got %d vectors for %d texts", start, len(vectors), end-start)
		}
		for i, vec := range vectors {
			if dimension == 0 {
				dimension = len(vec)
			}
			if len(vec) != dimension {
				return fmt.Errorf("record %d: dimension %d does not match %d", start+i, len(vec), dimension)
			}
			records[start+i].Embedding = vec
		}
		slog.Info("batch embedded", "done", end, "total", len(records))
	}

	// Validate before writing so a broken envelope never reaches disk.
	if _, err := corpus.New(cfg.Search.Semantic.Model, dimension, records); err != nil {
		return err
	}

	out, err := json.MarshalIndent(envelope{
		Model:     cfg.Search.Semantic.Model,
		Dimension: dimension,
		Records:   records,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	slog.Info("corpus envelope written", "path", outPath, "records", len(records), "dimension", dimension)
	return nil
}

// embeddingText is the document text embedded for a record.
func embeddingText(rec corpus.Record) string {
	return strings.TrimSpace(rec.PartTitle + " " + rec.ArticleTitle)
}
