package main

import (
	// Standard library
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// External dependencies
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/classify"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/describe"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/genai"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/health"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/speech"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/suggest"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/translate"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/api"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/audit"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/config"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/i18n"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/middleware"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/session"
	"github.com/agrisaathi/agriwaste/pkg/logger"
)

func main() {
	logInstance, err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENV"),
		WithSource:  !strings.EqualFold(os.Getenv("ENV"), "prod"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "agriwaste-server")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Wire the AI boundaries. Without a configured endpoint the service
	// starts in degraded mode: classification reports unavailability and
	// translation falls back to English.
	var (
		classifier classify.Classifier
		describer  describe.Describer
		wire       translate.Translator
		suggester  suggest.Suggester
		checker    *health.Checker
	)
	if cfg.AI.Endpoint.BaseURL != "" {
		client := genai.NewClient(genai.Config{
			BaseURL: cfg.AI.Endpoint.BaseURL,
			APIKey:  cfg.AI.Endpoint.APIKey(),
			Model:   cfg.AI.Endpoint.Model,
			Timeout: cfg.AI.Endpoint.TimeoutDuration(),
		})
		classifier = classify.NewGenAIClassifier(client)
		describer = describe.NewGenAIDescriber(client)
		wire = translate.NewGenAITranslator(client)
		suggester = suggest.NewGenAISuggester(client)

		checker = health.NewChecker(
			"genai",
			client,
			logInstance.With("component", "health-checker"),
			cfg.AI.Health.CheckIntervalDuration(),
			cfg.AI.Health.FailThreshold,
		)
		go checker.Start(context.Background())
		appLogger.Info("genai boundaries ready", "endpoint", cfg.AI.Endpoint.BaseURL, "model", cfg.AI.Endpoint.Model)
	} else {
		classifier = classify.NewMockClassifier(logInstance.With("component", "mock-classifier"))
		describer = describe.DescriberFunc(func(ctx context.Context, wasteType string) (string, error) {
			return "", errors.New("description service not configured")
		})
		wire = unavailableTranslator{}
		appLogger.Warn("no AI endpoint configured - starting in degraded mode")
	}

	// The translation queue fronts the wire translator with bounded
	// concurrency, backoff on rate limits, and in-flight deduplication.
	queue := translate.NewQueue(wire, translate.QueueConfig{
		BaseLanguage:   i18n.BaseLanguage,
		MaxConcurrent:  cfg.AI.Translation.MaxConcurrent,
		MaxAttempts:    cfg.AI.Translation.MaxAttempts,
		InitialBackoff: cfg.AI.Translation.InitialBackoffDuration(),
	})

	player := speech.NewHTTPPlayer(cfg.AI.Speech.Endpoint, cfg.AI.Endpoint.TimeoutDuration())
	if !player.Available() {
		appLogger.Warn("no speech endpoint configured - read aloud disabled")
	}

	auditLogger := audit.NewLogger(cfg.Audit.LogPath)
	appLogger.Info("audit logger ready", "path", cfg.Audit.LogPath)

	manager := session.NewManager(session.Deps{
		Classifier: classifier,
		Describer:  describer,
		Translator: queue,
		Suggester:  suggester,
		Speech:     player,
		Recorder:   auditLogger,
		Logger:     logInstance.With("component", "session"),
	}, cfg.Session.IdleTTL)
	manager.StartJanitor(cfg.Session.SweepInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(corsMiddleware(cfg.Server.CORSAllowedOrigins))

	startTime := time.Now()
	r.GET("/healthz", healthCheckHandler(cfg, startTime))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/services/status", api.HandleServicesStatus(checker, player.Available()))
	api.NewSessionHandler(manager).Register(r)

	srv := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: r,
	}

	go func() {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	manager.Stop()
	if checker != nil {
		checker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

// unavailableTranslator 降级模式下的翻译边界：所有请求返回通用失败，
// 会话层据此回退到基准语言
type unavailableTranslator struct{}

func (unavailableTranslator) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return "", errors.New("translation service not configured")
}

func (unavailableTranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	return nil, errors.New("translation service not configured")
}

// HealthCheckResponse represents the response from the liveness endpoint
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Env       string    `json:"env"`
}

// healthCheckHandler returns the liveness probe handler
func healthCheckHandler(cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthCheckResponse{
			Status:    "healthy",
			Service:   "agriwaste-server",
			Version:   "1.0.0",
			Uptime:    time.Since(startTime).String(),
			Timestamp: time.Now(),
			Env:       cfg.Server.Env,
		})
	}
}

// corsMiddleware 按配置的来源白名单设置 CORS 头
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
