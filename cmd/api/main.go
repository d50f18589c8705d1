package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zombar/painscope"
	"github.com/zombar/painscope/api"
	"github.com/zombar/painscope/db"
	"github.com/zombar/painscope/groq"
	"github.com/zombar/painscope/metrics"
	"github.com/zombar/painscope/ollama"
	"github.com/zombar/painscope/prompt"
	"github.com/zombar/painscope/tracing"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	logger.Info("painscope api initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("painscope-api")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultBackend := getEnv("BACKEND", "ollama")
	defaultOllamaURL := getEnv("OLLAMA_URL", ollama.DefaultBaseURL)
	defaultOllamaModel := getEnv("OLLAMA_MODEL", ollama.DefaultModel)
	defaultClassifyLimit := getEnv("CLASSIFY_LIMIT", "100")

	classifyLimit, err := strconv.Atoi(defaultClassifyLimit)
	if err != nil || classifyLimit <= 0 {
		logger.Warn("invalid CLASSIFY_LIMIT value, using default",
			"provided", defaultClassifyLimit,
			"default", 100,
		)
		classifyLimit = 100
	}

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	backendName := flag.String("backend", defaultBackend, "Classification backend (ollama or groq)")
	ollamaURL := flag.String("ollama-url", defaultOllamaURL, "Ollama base URL")
	ollamaModel := flag.String("ollama-model", defaultOllamaModel, "Ollama model to use for classification")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	flag.Parse()

	// PostgreSQL database configuration (required)
	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		logger.Error("DB_HOST environment variable is required")
		os.Exit(1)
	}

	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "painscope")
	dbPassword := getEnv("DB_PASSWORD", "painscope_dev_pass")
	dbName := getEnv("DB_NAME", "painscope")

	database, err := db.New(db.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)

	// Classification backend
	prompts := prompt.NewRenderer("")
	var backend painscope.Backend
	switch *backendName {
	case "groq":
		apiKey := getEnv("GROQ_API_KEY", "")
		client, err := groq.NewClient(apiKey, getEnv("GROQ_BASE_URL", ""), getEnv("GROQ_MODEL", ""), prompts)
		if err != nil {
			logger.Error("failed to create groq client", "error", err)
			os.Exit(1)
		}
		backend = client
		logger.Info("using groq backend", "model", getEnv("GROQ_MODEL", groq.DefaultModel))
	case "ollama":
		backend = ollama.NewClient(*ollamaURL, *ollamaModel, prompts)
		logger.Info("using ollama backend", "url", *ollamaURL, "model", *ollamaModel)
	default:
		logger.Error("unknown backend", "backend", *backendName)
		os.Exit(1)
	}

	cfg := painscope.DefaultConfig()
	cfg.BatchLimit = classifyLimit
	pipeline := painscope.NewPipeline(database, backend, cfg)

	server := api.NewServer(api.Config{
		Addr:        ":" + *port,
		CORSEnabled: !*disableCORS,
	}, database, pipeline)

	// Initialize database metrics
	dbMetrics := metrics.NewDatabaseMetrics("painscope")
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.Update(database.DB().Stats())
		}
	}()
	logger.Info("database metrics initialized")

	// Start server in a goroutine
	go func() {
		logger.Info("painscope api starting",
			"port", *port,
			"backend", *backendName,
			"database_host", dbHost,
			"database_name", dbName,
			"classify_limit", classifyLimit,
		)

		if err := server.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
