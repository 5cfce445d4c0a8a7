package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/ShivaAryal/constitution-search/internal/corpus"
	"github.com/ShivaAryal/constitution-search/internal/resolver"
)

// PartSummary describes one constitution part in a browse listing.
type PartSummary struct {
	PartNumber int    `json:"partNumber"`
	PartTitle  string `json:"partTitle"`
	Articles   int    `json:"articles"`
}

// ArticleEntry is one article within a part listing.
type ArticleEntry struct {
	ArticleTitle string `json:"articleTitle"`
	Language     string `json:"language"`
}

// Browse serves the read-only corpus listing endpoints.
type Browse struct {
	corpus    *corpus.Corpus
	languages []string
	logger    *slog.Logger
}

// NewBrowse creates a Browse handler over the loaded corpus.
func NewBrowse(c *corpus.Corpus, languages []string) *Browse {
	return &Browse{
		corpus:    c,
		languages: languages,
		logger:    slog.Default().With("component", "browse-handler"),
	}
}

// Parts handles GET /api/v1/parts. It lists the distinct parts for one
// language, ordered by part number.
func (b *Browse) Parts(w http.ResponseWriter, r *http.Request) {
	language, ok := b.language(w, r)
	if !ok {
		return
	}

	type partAgg struct {
		title    string
		articles int
	}
	parts := make(map[int]*partAgg)
	for _, rec := range b.corpus.ByLanguage(language) {
		agg, exists := parts[rec.PartNumber]
		if !exists {
			agg = &partAgg{title: rec.PartTitle}
			parts[rec.PartNumber] = agg
		}
		agg.articles++
	}

	out := make([]PartSummary, 0, len(parts))
	for number, agg := range parts {
		out = append(out, PartSummary{PartNumber: number, PartTitle: agg.title, Articles: agg.articles})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })

	b.writeJSON(w, http.StatusOK, map[string]any{"parts": out, "language": language})
}

// Articles handles GET /api/v1/parts/{partNumber}/articles.
func (b *Browse) Articles(w http.ResponseWriter, r *http.Request) {
	language, ok := b.language(w, r)
	if !ok {
		return
	}

	partNumber, err := strconv.Atoi(r.PathValue("partNumber"))
	if err != nil || partNumber <= 0 {
		b.writeError(w, http.StatusBadRequest, "partNumber must be a positive integer")
		return
	}

	var partTitle string
	var articles []ArticleEntry
	for _, rec := range b.corpus.ByLanguage(language) {
		if rec.PartNumber != partNumber {
			continue
		}
		partTitle = rec.PartTitle
		articles = append(articles, ArticleEntry{ArticleTitle: rec.ArticleTitle, Language: rec.Language})
	}
	if len(articles) == 0 {
		b.writeError(w, http.StatusNotFound, "unknown part number")
		return
	}
	sort.SliceStable(articles, func(i, j int) bool { return articles[i].ArticleTitle < articles[j].ArticleTitle })

	b.writeJSON(w, http.StatusOK, map[string]any{
		"partNumber": partNumber,
		"partTitle":  partTitle,
		"language":   language,
		"articles":   articles,
	})
}

// language validates the ?language= query parameter and writes a 400 on
// failure. The empty parameter defaults to the first configured language.
func (b *Browse) language(w http.ResponseWriter, r *http.Request) (string, bool) {
	requested := r.URL.Query().Get("language")
	if requested == "" && len(b.languages) > 0 {
		return b.languages[0], true
	}
	language, ok := resolver.NormalizeLanguage(requested, b.languages)
	if !ok {
		b.writeError(w, http.StatusBadRequest, "unsupported language")
		return "", false
	}
	return language, true
}

func (b *Browse) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("failed to write response", "error", err)
	}
}

func (b *Browse) writeError(w http.ResponseWriter, status int, message string) {
	b.writeJSON(w, status, map[string]string{"error": message})
}
