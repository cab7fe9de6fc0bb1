package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/chefmate/tastehub/internal/api/handlers"
	"github.com/chefmate/tastehub/internal/api/middleware"
	"github.com/chefmate/tastehub/internal/config"
	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/ingest"
	"github.com/chefmate/tastehub/internal/observability"
	"github.com/chefmate/tastehub/internal/service"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/vectorindex"
	"github.com/chefmate/tastehub/internal/workers"
	"github.com/chefmate/tastehub/pkg/cache"
	"github.com/chefmate/tastehub/pkg/pantry"
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	db             *pgxpool.Pool
	server         *http.Server
	river          *river.Client[pgx.Tx]
	poller         *ingest.Poller
	meterProvider  observability.MeterProviderShutdown
	tracerProvider *sdktrace.TracerProvider
	metrics        *observability.Metrics
}

const queueDepthInterval = 15 * time.Second

// NewApp builds and wires all components. It does not start the HTTP server or River;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (*App, error) {
	meterProvider, metricsHandler, metrics, err := observability.NewMeterProvider(ctx, observability.MeterProviderConfig{})
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}

	var tracerProvider *sdktrace.TracerProvider

	if cfg.OtelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(ctx, cfg.OtelTracesExporter, "")
		if err != nil {
			if err2 := observability.ShutdownMeterProvider(context.Background(), meterProvider); err2 != nil {
				slog.Error("shutdown meter provider after tracer provider error", "error", err2)
			}

			return nil, fmt.Errorf("create tracer provider: %w", err)
		}
	}

	// Install TraceContextHandler unconditionally so request_id (and trace_id/span_id when tracing is on) appear in logs.
	defaultHandler := slog.Default().Handler()
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(defaultHandler)))

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	providerClient, err := embeddings.NewProviderClient(ctx, embeddings.ProviderConfig{
		Provider:   cfg.EmbeddingProvider,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	queryCache, err := cache.NewLoaderCache[string, []float32](cfg.QueryCacheSize, func(s string) string { return s })
	if err != nil {
		return nil, fmt.Errorf("create query embedding cache: %w", err)
	}

	var cacheMetrics observability.CacheMetrics
	if metrics != nil {
		cacheMetrics = metrics.Cache
	}

	embedder := service.NewCachingEmbedder(providerClient, queryCache, cacheMetrics)

	index := vectorindex.NewPgxStore(db)
	codec := taste.NewCodec(embedder, slog.Default())

	retrieval := service.NewRetrievalService(index, slog.Default())

	var (
		searchMetrics   observability.SearchMetrics
		feedbackMetrics observability.FeedbackMetrics
		ingestMetrics   observability.IngestMetrics
	)
	if metrics != nil {
		searchMetrics = metrics.Search
		feedbackMetrics = metrics.Feedback
		ingestMetrics = metrics.Ingest
	}

	recommendService := service.NewRecommendService(service.RecommendServiceParams{
		Embedder:  embedder,
		Retrieval: retrieval,
		MinScore:  cfg.SearchScoreThreshold,
		TopK:      cfg.SearchTopK,
		Metrics:   searchMetrics,
		Logger:    slog.Default(),
	})

	feedbackService := service.NewFeedbackService(service.FeedbackServiceParams{
		Embedder:  embedder,
		Retrieval: retrieval,
		Codec:     codec,
		Index:     index,
		TopK:      cfg.SearchTopK,
		Metrics:   feedbackMetrics,
		Logger:    slog.Default(),
	})

	recordService := service.NewRecordService(service.RecordServiceParams{
		Codec:     codec,
		Index:     index,
		Embedder:  embedder,
		Retrieval: retrieval,
		Logger:    slog.Default(),
	})

	processor := ingest.NewProcessor(codec, index, ingestMetrics, slog.Default())

	var limiter *rate.Limiter
	if cfg.EmbeddingRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1)
	}

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewIngestWorker(processor, limiter, slog.Default()))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			service.IngestQueueName: {MaxWorkers: cfg.IngestMaxConcurrent},
		},
		Workers:     riverWorkers,
		MaxAttempts: cfg.IngestMaxAttempts,
	})
	if err != nil {
		if tracerProvider != nil {
			if err2 := observability.ShutdownTracerProvider(context.Background(), tracerProvider); err2 != nil {
				slog.Error("shutdown tracer provider after River client error", "error", err2)
			}
		}

		if err2 := observability.ShutdownMeterProvider(context.Background(), meterProvider); err2 != nil {
			slog.Error("shutdown meter provider after River client error", "error", err2)
		}

		return nil, fmt.Errorf("create River client: %w", err)
	}

	var poller *ingest.Poller

	if cfg.PantryBaseURL != "" {
		poller = ingest.NewPoller(ingest.PollerParams{
			Source:    pantry.NewClient(cfg.PantryBaseURL, cfg.PantryAPIKey),
			Inserter:  riverClient,
			Namespace: cfg.Namespace,
			Interval:  time.Duration(cfg.PantryPollInterval) * time.Second,
			Logger:    slog.Default(),
		})
		slog.Info("pantry change feed poller enabled", "base_url", cfg.PantryBaseURL)
	} else {
		slog.Info("pantry change feed poller disabled (PANTRY_BASE_URL not set)")
	}

	recommendHandler := handlers.NewRecommendHandler(recommendService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	recordsHandler := handlers.NewRecordsHandler(recordService)
	changesHandler := handlers.NewChangesHandler(riverClient, slog.Default())
	healthHandler := handlers.NewHealthHandler()

	server := newHTTPServer(
		cfg, healthHandler, recommendHandler, feedbackHandler, recordsHandler, changesHandler,
		metricsHandler, metrics, tracerProvider,
	)

	return &App{
		cfg:            cfg,
		db:             db,
		server:         server,
		river:          riverClient,
		poller:         poller,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		metrics:        metrics,
	}, nil
}

// newHTTPServer builds the HTTP server and muxes (no auth on /health and /metrics, API key on /v1/).
// Handler chain: RequestID -> otelhttp(Logging(Metrics(MaxBody(mux)))) so access logs get trace ids from context.
func newHTTPServer(
	cfg *config.Config,
	health *handlers.HealthHandler,
	recommend *handlers.RecommendHandler,
	feedback *handlers.FeedbackHandler,
	records *handlers.RecordsHandler,
	changes *handlers.ChangesHandler,
	metricsHandler http.Handler,
	metrics *observability.Metrics,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	public := http.NewServeMux()
	public.HandleFunc("GET /health", health.Check)

	if metricsHandler != nil {
		public.Handle("GET /metrics", metricsHandler)
	}

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/preferences/recommend", recommend.Recommend)
	protected.HandleFunc("POST /v1/preferences/feedback", feedback.Apply)

	protected.HandleFunc("POST /v1/taste-records", records.Create)
	protected.HandleFunc("GET /v1/taste-records", records.List)
	protected.HandleFunc("GET /v1/taste-records/{id}", records.Get)

	protected.HandleFunc("POST /v1/changes", changes.Receive)

	protectedWithAuth := middleware.Auth(cfg.APIKey)(protected)
	mux := http.NewServeMux()
	mux.Handle("/v1/", protectedWithAuth)
	mux.Handle("/", public)

	var apiMetrics observability.APIMetrics
	if metrics != nil {
		apiMetrics = metrics.API
	}

	otelOpts := []otelhttp.Option{
		// Skip tracing for health checks and metric scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	// Logging runs inside otelhttp so r.Context() has the span when we log (trace_id/span_id in access logs).
	inner := middleware.MaxBody(cfg.MaxRequestBodyBytes, apiMetrics)(mux)
	inner = middleware.Metrics(apiMetrics)(inner)
	inner = middleware.Logging(slog.Default())(inner)
	handler := otelhttp.NewHandler(inner, "tastehub-api", otelOpts...)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 15 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server, River, and the optional pantry poller, then blocks until
// ctx is cancelled (e.g. signal) or a component fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	if a.metrics != nil && a.metrics.Ingest != nil {
		go runQueueDepthPoller(riverCtx, a.db, a.metrics.Ingest)
	}

	if a.poller != nil {
		go a.poller.Run(riverCtx)
	}

	go func() {
		if err := a.river.Start(riverCtx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case runErr <- fmt.Errorf("river: %w", err):
			default:
			}
		}
	}()

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		cancelRiver()

		return err
	case <-ctx.Done():
		cancelRiver()

		return nil
	}
}

// runQueueDepthPoller periodically updates the ingest queue depth gauge.
func runQueueDepthPoller(ctx context.Context, db *pgxpool.Pool, ingestMetrics observability.IngestMetrics) {
	ticker := time.NewTicker(queueDepthInterval)
	defer ticker.Stop()

	update := func() {
		var count int64

		err := db.QueryRow(ctx,
			`SELECT COUNT(*) FROM river_job WHERE queue = $1 AND state IN ($2, $3, $4)`,
			service.IngestQueueName,
			rivertype.JobStateAvailable, rivertype.JobStateRetryable, rivertype.JobStateScheduled,
		).Scan(&count)
		if err != nil {
			slog.WarnContext(ctx, "ingest queue depth poll failed", "error", err)

			return
		}

		ingestMetrics.RecordQueueDepth(ctx, service.IngestQueueName, count)
	}

	update()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter observability.MeterProviderShutdown) error {
	var first error

	if tracer != nil {
		if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
			first = err
		}
	}

	if meter != nil {
		if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
			if first == nil {
				first = err
			} else {
				slog.Error("shutdown meter provider", "error", err)
			}
		}
	}

	return first
}

// Shutdown stops the server and River in order. Call after Run returns.
// Observability is shut down once via defer; its error is returned only when server and River shut down successfully.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if stopErr := a.river.Stop(ctx); stopErr != nil {
			slog.Error("river stop during server shutdown", "error", stopErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if err = a.river.Stop(ctx); err != nil {
		return fmt.Errorf("river stop: %w", err)
	}

	return nil
}
