package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/fathomdata/fathom/go/orchestrator/internal/activities"
	"github.com/fathomdata/fathom/go/orchestrator/internal/charts"
	"github.com/fathomdata/fathom/go/orchestrator/internal/circuitbreaker"
	cfg "github.com/fathomdata/fathom/go/orchestrator/internal/config"
	"github.com/fathomdata/fathom/go/orchestrator/internal/constants"
	"github.com/fathomdata/fathom/go/orchestrator/internal/embeddings"
	"github.com/fathomdata/fathom/go/orchestrator/internal/health"
	"github.com/fathomdata/fathom/go/orchestrator/internal/httpapi"
	"github.com/fathomdata/fathom/go/orchestrator/internal/llm"
	_ "github.com/fathomdata/fathom/go/orchestrator/internal/metrics" // Import for side effects
	"github.com/fathomdata/fathom/go/orchestrator/internal/ratecontrol"
	"github.com/fathomdata/fathom/go/orchestrator/internal/router"
	"github.com/fathomdata/fathom/go/orchestrator/internal/streaming"
	temporallog "github.com/fathomdata/fathom/go/orchestrator/internal/temporal"
	"github.com/fathomdata/fathom/go/orchestrator/internal/tracing"
	"github.com/fathomdata/fathom/go/orchestrator/internal/vectordb"
	"github.com/fathomdata/fathom/go/orchestrator/internal/workflows"
)

func main() {
	ctx := context.Background()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	features, err := cfg.Load()
	if err != nil {
		logger.Warn("Config file unavailable, using defaults", zap.Error(err))
		features = cfg.Default()
	}

	circuitbreaker.StartMetricsCollection()

	if err := tracing.Initialize(tracing.Config{
		Enabled:      features.Observability.Tracing.Enabled,
		OTLPEndpoint: features.Observability.Tracing.OTLPEndpoint,
	}, logger); err != nil {
		logger.Warn("Failed to initialize tracing", zap.Error(err))
	}

	streaming.Configure(features.Streaming.RingCapacity)

	// ------------------------------------------------------------------
	// Health manager and admin HTTP endpoints come up early so probes
	// respond while the Temporal worker is still connecting.
	// ------------------------------------------------------------------
	hm := health.NewManager(logger)
	httpMux := http.NewServeMux()
	health.NewHTTPHandler(hm, logger).RegisterRoutes(httpMux)
	httpapi.NewStreamingHandler(streaming.Get(), logger).RegisterRoutes(httpMux)
	httpMux.Handle("/metrics", promhttp.Handler())

	_ = hm.RegisterChecker(health.NewHTTPServiceHealthChecker(
		"llm-service", features.Services.LLMServiceURL+"/health", true))
	_ = hm.RegisterChecker(health.NewHTTPServiceHealthChecker(
		"chart-service", features.Services.ChartServiceURL+"/health", false))
	if features.VectorDB.Enabled {
		qdrantURL := "http://" + features.VectorDB.Host + ":" + strconv.Itoa(features.VectorDB.Port) + "/healthz"
		_ = hm.RegisterChecker(health.NewHTTPServiceHealthChecker("qdrant", qdrantURL, true))
	}

	// ------------------------------------------------------------------
	// Collaborator clients
	// ------------------------------------------------------------------
	llmClient := llm.NewClient(llm.Config{
		BaseURL: features.Services.LLMServiceURL,
	}, logger)

	chartGen := charts.NewGenerator(charts.Config{
		BaseURL: features.Services.ChartServiceURL,
	}, logger)

	var embedCache embeddings.EmbeddingCache
	if features.Embeddings.EnableRedis {
		if c, err := embeddings.NewRedisCache(features.Services.RedisAddr); err == nil {
			embedCache = c
			rc := redis.NewClient(&redis.Options{Addr: features.Services.RedisAddr})
			_ = hm.RegisterChecker(health.NewRedisHealthChecker(rc, nil, logger))
		} else {
			logger.Warn("Embeddings Redis cache init failed", zap.Error(err))
		}
	}
	embedder := embeddings.NewService(embeddings.Config{
		BaseURL:      features.Services.LLMServiceURL,
		DefaultModel: features.Embeddings.DefaultModel,
		CacheTTL:     features.EmbeddingCacheTTL(),
		MaxLRU:       features.Embeddings.MaxLRU,
	}, embedCache)

	vdb := vectordb.NewClient(vectordb.Config{
		Enabled:        features.VectorDB.Enabled,
		Host:           features.VectorDB.Host,
		Port:           features.VectorDB.Port,
		DocumentChunks: features.VectorDB.DocumentChunks,
		TopK:           features.VectorDB.TopK,
		Threshold:      features.VectorDB.Threshold,
		Timeout:        features.VectorDBTimeout(),
	}, logger)

	rt := router.New(llmClient, logger)
	acts := activities.NewActivities(rt, llmClient, chartGen, embedder, vdb, logger)

	// Hot-reload: streaming capacity and model rate limits follow the file
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if watcher, err := cfg.NewWatcher(path, logger); err == nil {
			watcher.OnChange(func(f *cfg.Features) {
				streaming.Configure(f.Streaming.RingCapacity)
				ratecontrol.Reload()
			})
			if err := watcher.Start(); err != nil {
				logger.Warn("Config watcher start failed", zap.Error(err))
			} else {
				defer watcher.Stop()
			}
		} else {
			logger.Warn("Config watcher init failed", zap.Error(err))
		}
	}

	// ------------------------------------------------------------------
	// Temporal client and worker
	// ------------------------------------------------------------------
	tClient, err := client.Dial(client.Options{
		HostPort:  features.Temporal.HostPort,
		Namespace: features.Temporal.Namespace,
		Logger:    temporallog.NewZapAdapter(logger),
	})
	if err != nil {
		logger.Fatal("Failed to connect to Temporal", zap.Error(err))
	}
	defer tClient.Close()

	httpapi.NewRunsHandler(tClient, features.Temporal.TaskQueue, logger).RegisterRoutes(httpMux)

	wk := worker.New(tClient, features.Temporal.TaskQueue, worker.Options{})
	wk.RegisterWorkflowWithOptions(workflows.AssistantWorkflow, workflow.RegisterOptions{Name: "AssistantWorkflow"})
	wk.RegisterActivityWithOptions(acts.RouteQuery, activity.RegisterOptions{Name: constants.RouteQueryActivity})
	wk.RegisterActivityWithOptions(acts.GenerateChart, activity.RegisterOptions{Name: constants.GenerateChartActivity})
	wk.RegisterActivityWithOptions(acts.RetrieveDocuments, activity.RegisterOptions{Name: constants.RetrieveDocumentsActivity})
	wk.RegisterActivityWithOptions(acts.SynthesizeAnswer, activity.RegisterOptions{Name: constants.SynthesizeAnswerActivity})
	wk.RegisterActivityWithOptions(activities.EmitRunUpdate, activity.RegisterOptions{Name: constants.EmitRunUpdateActivity})

	if err := wk.Start(); err != nil {
		logger.Fatal("Failed to start Temporal worker", zap.Error(err))
	}
	defer wk.Stop()

	// Admin HTTP server (health, metrics, streaming, run submission)
	adminPort := features.MetricsPort()
	if p := os.Getenv("HTTP_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			adminPort = n
		}
	}
	srv := &http.Server{
		Addr:        ":" + strconv.Itoa(adminPort),
		Handler:     httpMux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.Int("port", adminPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	if err := hm.Start(ctx); err != nil {
		logger.Warn("Health manager start failed", zap.Error(err))
	}

	logger.Info("Orchestrator started",
		zap.String("task_queue", features.Temporal.TaskQueue),
		zap.Bool("vectordb", features.VectorDB.Enabled),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down orchestrator")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = hm.Stop()
}
