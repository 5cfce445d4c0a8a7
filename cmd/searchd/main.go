package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShivaAryal/constitution-search/internal/analytics"
	"github.com/ShivaAryal/constitution-search/internal/cache"
	"github.com/ShivaAryal/constitution-search/internal/corpus"
	"github.com/ShivaAryal/constitution-search/internal/handler"
	"github.com/ShivaAryal/constitution-search/internal/lexical"
	"github.com/ShivaAryal/constitution-search/internal/resolver"
	"github.com/ShivaAryal/constitution-search/internal/semantic"
	"github.com/ShivaAryal/constitution-search/pkg/config"
	"github.com/ShivaAryal/constitution-search/pkg/health"
	"github.com/ShivaAryal/constitution-search/pkg/kafka"
	"github.com/ShivaAryal/constitution-search/pkg/logger"
	"github.com/ShivaAryal/constitution-search/pkg/metrics"
	"github.com/ShivaAryal/constitution-search/pkg/middleware"
	"github.com/ShivaAryal/constitution-search/pkg/postgres"
	pkgredis "github.com/ShivaAryal/constitution-search/pkg/redis"
)

const snapshotInterval = time.Minute

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting constitution search service",
		"port", cfg.Server.Port,
		"corpus_source", cfg.Corpus.Source,
		"semantic_enabled", cfg.Search.Semantic.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The corpus is mandatory: without it there is nothing to search, so a
	// load failure is fatal rather than degraded.
	var pgClient *postgres.Client
	wantModel := ""
	if cfg.Search.Semantic.Enabled {
		wantModel = cfg.Search.Semantic.Model
	}
	var corp *corpus.Corpus
	switch cfg.Corpus.Source {
	case "postgres":
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		corp, err = corpus.LoadPostgres(ctx, pgClient, cfg.Corpus.Table, wantModel)
	default:
		corp, err = corpus.LoadFile(cfg.Corpus.Path, wantModel)
	}
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	for language, count := range corp.LanguageCounts() {
		m.CorpusRecords.WithLabelValues(language).Set(float64(count))
	}
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer analyticsProducer.Close()
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()

	var aggregator *analytics.Aggregator
	aggregator = analytics.NewAggregator(
		kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, func(ctx context.Context, key, value []byte) error {
			return analytics.HandleEvent(aggregator)(ctx, key, value)
		}),
	)
	go func() {
		if err := aggregator.Start(ctx); err != nil && ctx.Err() == nil {
			slog.Error("analytics aggregator error", "error", err)
		}
	}()
	analyticsH := analytics.NewHandler(aggregator)

	if pgClient != nil {
		store := analytics.NewStore(pgClient)
		store.StartPeriodicSave(ctx, aggregator, snapshotInterval)
	}

	var semanticMatcher *semantic.Matcher
	if cfg.Search.Semantic.Enabled {
		semanticMatcher = semantic.New(cfg.Search, func() (semantic.Embedder, error) {
			return semantic.NewOpenAIEmbedder(cfg.Search.Semantic)
		})
		slog.Info("semantic matcher enabled",
			"model", cfg.Search.Semantic.Model,
			"base_url", cfg.Search.Semantic.BaseURL,
		)
	}
	lexicalMatcher := lexical.New(cfg.Search)

	var semanticRanker resolver.SemanticRanker
	if semanticMatcher != nil {
		semanticRanker = semanticMatcher
	}
	res := resolver.New(corp, cfg.Corpus.Languages, semanticRanker, lexicalMatcher)

	checker := health.NewChecker()
	checker.Register("corpus", func(ctx context.Context) health.ComponentHealth {
		if corp.Len() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d records", corp.Len())}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "empty corpus"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	checker.Register("embedder", func(ctx context.Context) health.ComponentHealth {
		if semanticMatcher == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "semantic ranking disabled"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: cfg.Search.Semantic.Model}
	})

	h := handler.New(res, queryCache, collector, m, cfg.Corpus.Languages)
	browse := handler.NewBrowse(corp, cfg.Corpus.Languages)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", h.Search)
	mux.HandleFunc("GET /api/v1/parts", browse.Parts)
	mux.HandleFunc("GET /api/v1/parts/{partNumber}/articles", browse.Articles)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("constitution search listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("constitution search stopped")
}
