package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wildscope/wildscope-backend/internal/detection"
	"github.com/wildscope/wildscope-backend/internal/detection/consumer"
	"github.com/wildscope/wildscope-backend/internal/inference"
	"github.com/wildscope/wildscope-backend/internal/tracking"
	"github.com/wildscope/wildscope-backend/pkg/config"
	"github.com/wildscope/wildscope-backend/pkg/db"
	"github.com/wildscope/wildscope-backend/pkg/instance"
	"github.com/wildscope/wildscope-backend/pkg/logger"
	"github.com/wildscope/wildscope-backend/pkg/metrics"
	"github.com/wildscope/wildscope-backend/pkg/pubsub"
	"github.com/wildscope/wildscope-backend/pkg/redis"
	"github.com/wildscope/wildscope-backend/pkg/storage/gcs"
)

const serviceName = "detection-worker"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceName})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "object storage", err)

	detector, err := inference.NewDetectorClient(
		cfg.Detector.BaseURL, cfg.Detector.ConfidenceThreshold, cfg.Detector.Timeout)
	requireResource(ctx, logg, "detector client", err)

	classifier, err := inference.NewClassifierClient(cfg.Classifier.BaseURL, cfg.Classifier.Timeout)
	requireResource(ctx, logg, "classifier client", err)

	repo, err := detection.NewRepository(dbClient.DB())
	requireResource(ctx, logg, "repository", err)

	tracker, err := tracking.New(redisClient, cfg.Tracking.KeyPrefix, cfg.Tracking.TTL)
	requireResource(ctx, logg, "tracking store", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	pipeline, err := detection.NewPipeline(
		gcsClient,
		detector,
		classifier,
		repo,
		tracker,
		logg,
		pipelineMetrics,
		detection.Config{
			ClassifierThreshold: cfg.Classifier.ConfidenceThreshold,
			TopK:                cfg.Classifier.TopK,
			ReviewCutoff:        cfg.Pipeline.ReviewCutoff,
			SharpnessScale:      cfg.Pipeline.SharpnessScale,
			CropPadding:         cfg.Pipeline.CropPadding,
			CropJPEGQuality:     cfg.Pipeline.CropJPEGQuality,
		},
	)
	requireResource(ctx, logg, "pipeline", err)

	imageConsumer, err := consumer.NewConsumer(pipeline, pubsubClient.ImageSubscription(), logg)
	requireResource(ctx, logg, "image consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
		"instance":    instance.GetID(),
	})

	opsServer := newOpsServer(cfg.Ops.Port, registry, dbClient, redisClient)
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "ops server not working", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = opsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(runCtx, "detection worker ready")

	if err := imageConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "detection worker not working", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "detection worker shutting down gracefully")
}

func newOpsServer(port string, registry *prometheus.Registry, dbClient db.Pinger, redisClient redis.Pinger) *http.Server {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbClient.Ping(ctx); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		if err := redisClient.Ping(ctx); err != nil {
			http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
