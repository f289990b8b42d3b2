package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cortex/internal/adapters/analysis"
	"cortex/internal/adapters/config"
	"cortex/internal/adapters/errors/noop"
	"cortex/internal/adapters/errors/sentry"
	"cortex/internal/adapters/kafka"
	"cortex/internal/adapters/llm"
	"cortex/internal/adapters/redis"
	"cortex/internal/agent"
	"cortex/internal/analyzers"
	"cortex/internal/api"
	"cortex/internal/api/health"
	"cortex/internal/events"
	"cortex/internal/workflow"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Analysis backend
	backend := analysis.New(cfg.Analysis)
	readyCtx, readyCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := backend.WaitReady(readyCtx); err != nil {
		log.Warnf("Analysis backend not ready, continuing with degraded responses: %v", err)
	}
	readyCancel()

	// LLM client (optional; everything degrades without one)
	llmClient, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to configure LLM client: %v", err)
	}

	// Redis (only when the cache backend needs it)
	var redisClient *redis.Client
	if cfg.Cache.Backend == "redis" {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() { _ = redisClient.Close() }()
	}

	var store analyzers.Store = analyzers.NewMemoryStore(cfg.Cache.MaxEntries)
	if redisClient != nil {
		store = analyzers.NewRedisStore(redisClient)
		log.Info("Analyzer caches backed by Redis")
	}

	// Analyzers
	riskAnalyzer := analyzers.NewRiskAnalyzer(llmClient, store, cfg.Cache.RiskTTL)
	sentimentAnalyzer := analyzers.NewSentimentAnalyzer(llmClient)
	marketAnalyzer := analyzers.NewMarketPulseAnalyzer(llmClient, store, cfg.Cache.MarketTTL)
	for _, section := range []string{analyzers.SectionTrends, analyzers.SectionSentiment, analyzers.SectionCompetition} {
		marketAnalyzer.RegisterDataSource(section, analyzers.NewBackendSource(backend, section))
	}

	// Agents
	agentFactory := agent.NewFactory(cfg, backend, llmClient)

	// Events
	emitter := events.NewEmitter()
	var hub *events.WebSocketHub
	if cfg.Events.WebSocketEnabled {
		hub = events.NewWebSocketHub()
		ch, unsubscribe := emitter.Subscribe()
		defer unsubscribe()
		go hub.Run(ctx, ch)
		defer hub.Close()
	}
	if cfg.Events.KafkaEnabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer func() { _ = producer.Close() }()
		publisher := events.NewKafkaPublisher(producer, cfg.Events.KafkaTopic)
		ch, unsubscribe := emitter.Subscribe()
		defer unsubscribe()
		go publisher.Run(ctx, ch)
		log.Infof("Workflow events published to Kafka topic %s", cfg.Events.KafkaTopic)
	}

	// Workflow orchestration
	orchestrator := workflow.New(cfg.Workflow, emitter)
	workflow.RegisterDefaultHandlers(orchestrator, backend, llmClient)

	// HTTP API
	healthHandler := health.New(cfg.App.Name, cfg.App.Version)
	healthHandler.Register("analysis_backend", backend)
	if redisClient != nil {
		healthHandler.Register("redis", health.CheckerFunc(redisClient.Health))
	}

	handlers := api.NewHandlers(agentFactory, orchestrator, riskAnalyzer, sentimentAnalyzer, marketAnalyzer)
	server := api.NewServer(api.ServerConfig{
		Port:        cfg.Server.Port,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	}, handlers, healthHandler, hub, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, cfg, server, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains the HTTP server
// and flushes the error tracker.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, server *api.Server, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown: %v", err)
	}

	cancel()

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
