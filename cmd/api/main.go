// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/manoa-its/helpdesk-assistant/internal/analytics"
	"github.com/manoa-its/helpdesk-assistant/internal/cache"
	"github.com/manoa-its/helpdesk-assistant/internal/compose"
	"github.com/manoa-its/helpdesk-assistant/internal/config"
	"github.com/manoa-its/helpdesk-assistant/internal/conversation"
	"github.com/manoa-its/helpdesk-assistant/internal/handler"
	"github.com/manoa-its/helpdesk-assistant/internal/kv"
	"github.com/manoa-its/helpdesk-assistant/internal/llm"
	"github.com/manoa-its/helpdesk-assistant/internal/middleware"
	"github.com/manoa-its/helpdesk-assistant/internal/scrape"
	"github.com/manoa-its/helpdesk-assistant/internal/service"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
	"github.com/manoa-its/helpdesk-assistant/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting helpdesk assistant API")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "helpdesk-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to the key-value store
	kvClient, err := kv.Connect(ctx, kv.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to key-value store", zap.Error(err))
		os.Exit(1)
	}
	defer kvClient.Close()

	conversationBucket, err := kv.EnsureBucket(ctx, kvClient, kv.ConversationsBucket, cfg.ConversationTTL)
	if err != nil {
		log.Error("failed to ensure conversations bucket", zap.Error(err))
		os.Exit(1)
	}
	pageCacheBucket, err := kv.EnsureBucket(ctx, kvClient, kv.PageCacheBucket, cfg.PageCacheTTL)
	if err != nil {
		log.Error("failed to ensure page cache bucket", zap.Error(err))
		os.Exit(1)
	}

	// Open the analytics store
	analyticsStore, err := analytics.Open(cfg.SQLitePath, log)
	if err != nil {
		log.Error("failed to open analytics store", zap.Error(err))
		os.Exit(1)
	}
	defer analyticsStore.Close()
	if err := analyticsStore.Migrate(ctx); err != nil {
		log.Error("failed to migrate analytics schema", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM client; the assistant degrades to canned replies
	// when no provider is configured.
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == string(llm.ProviderAnthropic) && cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	}
	if err != nil {
		log.Warn("failed to create LLM client, canned replies only", zap.Error(err))
		llmClient = nil
	} else if llmClient == nil {
		log.Warn("no LLM provider configured, canned replies only")
	}

	// Initialize services
	contentCache := cache.New(pageCacheBucket, log)
	retriever := scrape.NewRetriever(contentCache, log)
	conversations := conversation.NewStore(conversationBucket, log)
	composer := compose.New(llmClient, log)
	chatSvc := service.NewChatService(conversations, retriever, composer, analyticsStore, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(kvClient, analyticsStore)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsStore, composer, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes, rate limited per client IP
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.Chat)
		r.Get("/chat/{id}/history", chatHandler.History)

		r.Route("/analytics", func(r chi.Router) {
			r.Post("/events", analyticsHandler.RecordEvent)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(cfg.AdminJWTSecret))
				r.Get("/summary", analyticsHandler.Summary)
				r.Get("/summary/range", analyticsHandler.SummaryRange)
				r.Post("/ai-summary", analyticsHandler.AISummary)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
