package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	pkgerrors "github.com/ShivaAryal/constitution-search/pkg/errors"
	"github.com/ShivaAryal/constitution-search/pkg/postgres"
)

// LoadPostgres reads the corpus from a PostgreSQL table. The expected schema:
//
//	CREATE TABLE corpus_records (
//	    id            BIGSERIAL PRIMARY KEY,
//	    part_number   INT NOT NULL,
//	    part_title    TEXT NOT NULL,
//	    article_title TEXT NOT NULL,
//	    language      TEXT NOT NULL,
//	    embedding     FLOAT8[],
//	    model         TEXT NOT NULL DEFAULT ''
//	);
//
// Rows must agree on a single model value; wantModel follows the same
// contract as LoadFile.
func LoadPostgres(ctx context.Context, db *postgres.Client, table string, wantModel string) (*Corpus, error) {
	query := fmt.Sprintf(
		`SELECT part_number, part_title, article_title, language, embedding, model FROM %s ORDER BY id`,
		pq.QuoteIdentifier(table),
	)
	rows, err := db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", pkgerrors.ErrCorpusLoad, table, err)
	}
	defer rows.Close()

	var records []Record
	model := ""
	for rows.Next() {
		var rec Record
		var embedding pq.Float64Array
		var rowModel string
		if err := rows.Scan(&rec.PartNumber, &rec.PartTitle, &rec.ArticleTitle, &rec.Language, &embedding, &rowModel); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", pkgerrors.ErrCorpusLoad, err)
		}
		if len(embedding) > 0 {
			rec.Embedding = make([]float32, len(embedding))
			for i, v := range embedding {
				rec.Embedding[i] = float32(v)
			}
		}
		if rowModel != "" {
			if model != "" && rowModel != model {
				return nil, fmt.Errorf("%w: table %s mixes embedding models %q and %q",
					pkgerrors.ErrCorpusLoad, table, model, rowModel)
			}
			model = rowModel
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading rows: %v", pkgerrors.ErrCorpusLoad, err)
	}

	if wantModel != "" && model != wantModel {
		return nil, fmt.Errorf("%w: corpus was embedded with model %q but query-time model is %q",
			pkgerrors.ErrCorpusLoad, model, wantModel)
	}

	c, err := New(model, 0, records)
	if err != nil {
		return nil, err
	}
	slog.Info("corpus loaded",
		"source", "postgres",
		"table", table,
		"records", c.Len(),
		"model", c.Model(),
		"dimension", c.Dimension(),
	)
	return c, nil
}
