package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/automaxprocs/maxprocs"

	apisearch "github.com/farescout/farescout/internal/api/search"
	appsearch "github.com/farescout/farescout/internal/app/search"
	"github.com/farescout/farescout/internal/config"
	"github.com/farescout/farescout/internal/config/fileloader"
	domainsearch "github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/internal/infra/provider/googleflights"
	memorystore "github.com/farescout/farescout/internal/infra/storage/search/memory"
	postgresstore "github.com/farescout/farescout/internal/infra/storage/search/postgres"
	redisstore "github.com/farescout/farescout/internal/infra/storage/search/redis"
	"github.com/farescout/farescout/pkg/common"
	"github.com/farescout/farescout/pkg/common/logger"
	"github.com/farescout/farescout/pkg/common/otel"
)

var build = "develop"

const serviceType = "search-engine"

func main() {
	// Set the correct number of threads for the service.
	_, _ = maxprocs.Set()

	hostname, err := os.Hostname()
	if err != nil {
		stdlog.Fatalf("failed to get hostname: %v", err)
	}

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}
			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}

			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n", r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	svcName := fmt.Sprintf("SEARCH-ENGINE-%s", hostname)
	metadata := map[string]string{
		"service":  svcName,
		"hostname": hostname,
		"pod":      os.Getenv("POD_NAME"),
		"app":      serviceType,
		"build":    build,
	}

	log := logger.NewWithMetadata(os.Stdout, logger.LevelInfo, svcName, traceIDFn, logEvents, metadata)

	ctx := context.Background()

	if err := run(ctx, log, hostname); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, hostname string) error {
	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := fileloader.NewFileLoader(configPath).Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	prob := 0.05
	if v := os.Getenv("OTEL_SAMPLING_RATIO"); v != "" {
		prob, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing sampling ratio: %w", err)
		}
	}

	traceProvider, teardown, err := otel.InitTelemetry(log, otel.Config{
		ServiceName:      serviceType,
		ExporterEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ExcludedRoutes: map[string]struct{}{
			"/health": {},
		},
		Probability: prob,
		ResourceAttributes: map[string]string{
			"library.language": "go",
			"hostname":         hostname,
		},
		InsecureExporter: true,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer teardown(ctx)

	tracer := traceProvider.Tracer(serviceType)

	// -------------------------------------------------------------------------
	// Job Store

	log.Info(ctx, "startup", "status", "initializing job store", "backend", cfg.Store.Backend)

	var store domainsearch.JobStore
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		memStore := memorystore.New()
		store = memStore
		go runJanitor(ctx, log, cfg.Store.RetentionTTL, func() int {
			return memStore.PurgeOlderThan(cfg.Store.RetentionTTL)
		})

	case config.StoreBackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.Store.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()
		store = redisstore.NewStore(client, cfg.Store.RetentionTTL, tracer)

	case config.StoreBackendPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.Store.PostgresDSN)
		if err != nil {
			return fmt.Errorf("parsing db config: %w", err)
		}
		poolCfg.MinConns = 5
		poolCfg.MaxConns = 25
		poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("creating db pool: %w", err)
		}
		defer pool.Close()

		pgStore := postgresstore.NewStore(pool, tracer)
		store = pgStore
		go runJanitor(ctx, log, cfg.Store.RetentionTTL, func() int {
			removed, err := pgStore.PurgeOlderThan(ctx, cfg.Store.RetentionTTL)
			if err != nil {
				log.Warn(ctx, "job purge failed", "error", err)
				return 0
			}
			return int(removed)
		})
	}

	// -------------------------------------------------------------------------
	// Search Engine

	log.Info(ctx, "startup", "status", "initializing search engine")

	mp := otel.GetMeterProvider()
	metrics, err := appsearch.NewEngineMetrics(mp)
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}

	provider := googleflights.NewClient(cfg.Provider.Config, log, tracer)
	limiter := common.NewRateLimiter(cfg.Provider.RequestsPerSecond, cfg.Provider.Burst)

	engine := appsearch.NewEngine(
		appsearch.NewOrchestrator(
			appsearch.NewEvaluator(provider, log, tracer),
			store,
			limiter,
			metrics,
			log,
			tracer,
		),
		store,
		metrics,
		log,
		tracer,
	)

	// -------------------------------------------------------------------------
	// HTTP API

	apiMetrics, err := apisearch.NewAPIMetrics(mp)
	if err != nil {
		return fmt.Errorf("creating api metrics: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apisearch.NewHandler(engine, apiMetrics, log).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(ctx, "startup", "status", "api router started", "host", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig.String())
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		if err := engine.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("could not stop engine gracefully: %w", err)
		}
	}

	return nil
}

// runJanitor purges expired jobs on an interval derived from the retention
// window. Redis handles retention with key TTLs and doesn't need one.
func runJanitor(ctx context.Context, log *logger.Logger, ttl time.Duration, purge func() int) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := purge(); removed > 0 {
				log.Info(ctx, "purged expired search jobs", "removed", removed)
			}
		}
	}
}
