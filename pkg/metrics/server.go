package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const landingPage = `<html><body><h1>Constitution Search Metrics</h1><p><a href="/metrics">/metrics</a></p></body></html>`

// StartServer serves the Prometheus scrape endpoint on its own port, kept
// separate from the search listener so scrapes never compete with queries.
// The returned function shuts the server down gracefully.
func StartServer(port int) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, landingPage)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return server.Shutdown
}
