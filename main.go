package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"wanderplan/config"
	"wanderplan/database"
	"wanderplan/handlers"
	"wanderplan/logger"
	"wanderplan/middleware"
	"wanderplan/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignored in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.AppEnv, os.Stdout)
	slog.SetDefault(appLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ── Credential Store ──────────────────────────────────────────────────────
	var store services.CredentialStore = services.NewMemoryCredentialStore()
	if cfg.Database.Enabled() {
		db, err := database.Open(ctx, cfg.Database, appLogger)
		if err != nil {
			appLogger.Error("Failed to initialize database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()
		store = database.NewCredentialStore(db)
	} else {
		appLogger.Warn("No database configured, API keys are kept in memory")
	}

	// ── Services ──────────────────────────────────────────────────────────────
	groq := services.NewGroqGenerator(services.GroqConfig{
		BaseURL:     cfg.Groq.BaseURL,
		Model:       cfg.Groq.Model,
		Temperature: cfg.Groq.Temperature,
		Timeout:     cfg.Groq.Timeout,
	}, appLogger)

	var generator services.TextGenerator = groq
	if cfg.Generator == "gemini" {
		generator = services.NewGeminiGenerator(services.GeminiConfig{
			BaseURL:    cfg.Gemini.BaseURL,
			APIVersion: cfg.Gemini.APIVersion,
			Model:      cfg.Gemini.Model,
			Timeout:    cfg.Gemini.Timeout,
		}, appLogger)
	}

	flights := services.NewSerpAPIClient(services.SerpAPIConfig{
		BaseURL:  cfg.SerpAPI.BaseURL,
		RelayURL: cfg.SerpAPI.RelayURL,
		UseRelay: cfg.SerpAPI.UseRelay,
		Currency: cfg.SerpAPI.Currency,
		Timeout:  cfg.SerpAPI.Timeout,
	}, appLogger)

	planner := services.NewTripPlanner(generator, appLogger)
	h := handlers.New(handlers.Deps{
		Sessions:    services.NewSessionStore(),
		Credentials: store,
		Fallback:    services.StaticCredentials(cfg.FallbackKeys),
		Controller:  services.NewController(planner, flights, appLogger),
		Chat:        services.NewChat(generator, appLogger),
		GroqPlanner: services.NewTripPlanner(groq, appLogger),
		Flights:     flights,
		Logger:      appLogger,
	})

	// ── Router ────────────────────────────────────────────────────────────────
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go limiter.RunSweeper(ctx, time.Minute, cfg.RateLimit.Idle)

	r, err := newRouter(cfg, h, limiter, appLogger)
	if err != nil {
		appLogger.Error("Failed to set up router", slog.Any("error", err))
		os.Exit(1)
	}

	// ── HTTP Server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(appLogger.Handler(), slog.LevelError),
	}

	go func() {
		appLogger.Info("WanderPlan backend starting",
			slog.String("address", srv.Addr),
			slog.String("generator", generator.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", slog.Any("error", err))
		return
	}
	appLogger.Info("Server stopped")
}

func newRouter(cfg config.Config, h *handlers.Handler, limiter *middleware.ClientLimiter, logger *slog.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	// Only listed proxies may set the client IP; an empty list trusts none.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.GroqKeyHeader, handlers.SerpKeyHeader, "X-Session-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RateLimit(limiter))

	h.Register(r)
	return r, nil
}
