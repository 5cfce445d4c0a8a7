package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Timeout bounds every request by the given duration and answers 504 when a
// handler overruns without having written anything.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			guard := &writeGuard{ResponseWriter: w}
			go func() {
				next.ServeHTTP(guard, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !guard.written {
					slog.Warn("request timed out",
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout,
					)
					http.Error(w, `{"error":"request timeout"}`, http.StatusGatewayTimeout)
				}
			}
		})
	}
}

// writeGuard remembers whether the handler already started the response; a
// timeout after the first byte cannot be turned into a 504.
type writeGuard struct {
	http.ResponseWriter
	written bool
}

func (g *writeGuard) WriteHeader(code int) {
	g.written = true
	g.ResponseWriter.WriteHeader(code)
}

func (g *writeGuard) Write(b []byte) (int, error) {
	g.written = true
	return g.ResponseWriter.Write(b)
}
