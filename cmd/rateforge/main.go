package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/RateForge/internal/adapter/exchangerate"
	"github.com/Strob0t/RateForge/internal/adapter/litellm"
	"github.com/Strob0t/RateForge/internal/adapter/mcp"
	"github.com/Strob0t/RateForge/internal/adapter/otel"
	"github.com/Strob0t/RateForge/internal/adapter/ristretto"
	"github.com/Strob0t/RateForge/internal/adapter/ws"
	"github.com/Strob0t/RateForge/internal/agent"
	"github.com/Strob0t/RateForge/internal/config"
	"github.com/Strob0t/RateForge/internal/logger"
	"github.com/Strob0t/RateForge/internal/middleware"
	"github.com/Strob0t/RateForge/internal/port/a2a"
	"github.com/Strob0t/RateForge/internal/port/agentruntime"
	"github.com/Strob0t/RateForge/internal/resilience"
	"github.com/Strob0t/RateForge/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logClose := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logClose.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"queue_capacity", cfg.Queue.Capacity,
		"fallback_timeout", cfg.Fallback.Timeout,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	quoteCache, err := ristretto.New(cfg.Cache.MaxSizeMB * 1024 * 1024)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer quoteCache.Close()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Outbound clients ---

	rates := exchangerate.NewClient(cfg.ExchangeRate.URL, cfg.ExchangeRate.AccessKey)
	rates.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	rates.SetCache(quoteCache, cfg.ExchangeRate.CacheTTL)

	llm := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey)
	llm.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Runtimes ---

	analyst := agent.NewAnalyst(llm, rates, cfg.LiteLLM.Model, cfg.LiteLLM.MaxToolRounds)

	runtimes := agentruntime.NewRegistry()
	runtimes.Register(analyst)
	runtimes.Register(service.NewAnalysisWorkflow(rates, analyst))

	// --- Services ---

	hub := ws.NewHub()
	store := service.NewTaskStore()
	deliverer := service.NewDeliverer(cfg.Webhook)

	queue := service.NewQueue(cfg.Queue.Capacity, runtimes, deliverer, store,
		service.WithBroadcaster(hub),
		service.WithMetrics(metrics),
	)
	queue.Start(ctx)
	defer queue.Close()

	orch := service.NewOrchestrator(deliverer, store, cfg.Fallback.Timeout)
	app := service.NewApp(runtimes, []string{service.WorkflowAnalysis}, queue, orch, store, deliverer)

	// --- MCP ---

	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "rateforge",
			Version: "0.1.0",
			APIKey:  cfg.MCP.APIKey,
		}, mcp.ServerDeps{Rates: rates, Queue: queue})
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mcpSrv.Stop(stopCtx)
		}()
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", healthHandler(cfg, llm))
	r.Get("/ws", hub.HandleWS)

	a2a.NewHandler(cfg.Server.BaseURL, app).MountRoutes(r)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Fallback.Timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports service health and the LiteLLM proxy's liveliness.
func healthHandler(cfg *config.Config, llm *litellm.Client) http.HandlerFunc {
	type healthStatus struct {
		Status       string `json:"status"`
		LiteLLM      string `json:"litellm"`
		ExchangeRate string `json:"exchange_rate"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{
			Status:       "ok",
			LiteLLM:      "ok",
			ExchangeRate: cfg.ExchangeRate.URL,
		}

		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if ok, err := llm.Health(checkCtx); err != nil || !ok {
			status.LiteLLM = "unreachable"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
