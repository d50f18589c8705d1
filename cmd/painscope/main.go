// Command painscope runs the scrape, classify and report stages as a batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zombar/painscope"
	"github.com/zombar/painscope/db"
	"github.com/zombar/painscope/groq"
	"github.com/zombar/painscope/ollama"
	"github.com/zombar/painscope/prompt"
	"github.com/zombar/painscope/report"
	"github.com/zombar/painscope/sources"
	"github.com/zombar/painscope/tracing"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	scrape := flag.Bool("scrape", false, "Scrape all configured sources")
	classify := flag.Bool("classify", false, "Classify unprocessed posts")
	genReport := flag.Bool("report", false, "Generate the markdown report")
	all := flag.Bool("all", false, "Run scrape, classify and report")
	reddit := flag.Bool("reddit", true, "Include Reddit when scraping")
	hwz := flag.Bool("hwz", true, "Include HardwareZone when scraping")
	news := flag.Bool("news", true, "Include news feeds when scraping")
	limit := flag.Int("limit", 50, "Posts to fetch per source / classify per run")
	fullContent := flag.Bool("full-content", false, "Fetch full article text for news items")
	jsonExport := flag.Bool("json", false, "Also write a JSON data export alongside the report")
	backendName := flag.String("backend", getEnv("BACKEND", "ollama"), "Classification backend (ollama or groq)")
	reportDir := flag.String("report-dir", "reports", "Directory for generated reports")
	flag.Parse()

	if *all {
		*scrape, *classify, *genReport = true, true, true
	}
	if !*scrape && !*classify && !*genReport {
		fmt.Fprintln(os.Stderr, "Nothing to do: pass --scrape, --classify, --report or --all")
		flag.Usage()
		os.Exit(2)
	}

	tp, err := tracing.InitTracer("painscope-batch")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
	}

	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		logger.Error("DB_HOST environment variable is required")
		os.Exit(1)
	}
	database, err := db.New(db.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost,
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "painscope"),
			getEnv("DB_PASSWORD", "painscope_dev_pass"),
			getEnv("DB_NAME", "painscope"),
		),
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// A batch run should stop cleanly between posts on Ctrl-C.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *scrape {
		runScrapers(ctx, logger, database, *reddit, *hwz, *news, *limit, *fullContent)
	}

	if *classify {
		if err := runClassification(ctx, logger, database, *backendName, *limit); err != nil {
			logger.Error("classification failed", "error", err)
			os.Exit(1)
		}
	}

	if *genReport {
		generator := report.NewGenerator(database, *reportDir)
		path, err := generator.Generate()
		if err != nil {
			logger.Error("report generation failed", "error", err)
			os.Exit(1)
		}
		logger.Info("report written", "path", path)
		fmt.Println("Report saved to", path)

		if *jsonExport {
			path, err := generator.GenerateJSON()
			if err != nil {
				logger.Error("json export failed", "error", err)
				os.Exit(1)
			}
			logger.Info("json export written", "path", path)
			fmt.Println("JSON export saved to", path)
		}
	}
}

func runScrapers(ctx context.Context, logger *slog.Logger, database *db.DB, reddit, hwz, news bool, limit int, fullContent bool) {
	cfg := sources.DefaultConfig()

	if reddit {
		result, err := sources.NewRedditScraper(database, cfg, nil).Scrape(ctx, limit)
		if err != nil {
			logger.Error("reddit scrape failed", "error", err)
		} else {
			logger.Info("reddit scrape complete", "scraped", result.Scraped, "saved", result.Saved)
		}
	}
	if hwz {
		result, err := sources.NewHWZScraper(database, cfg).Scrape(ctx, limit, 3)
		if err != nil {
			logger.Error("hwz scrape failed", "error", err)
		} else {
			logger.Info("hwz scrape complete", "scraped", result.Scraped, "saved", result.Saved)
		}
	}
	if news {
		scraper := sources.NewRSSScraper(database, cfg, nil)
		scraper.FetchFullContent = fullContent
		result, err := scraper.Scrape(ctx, limit)
		if err != nil {
			logger.Error("news scrape failed", "error", err)
		} else {
			logger.Info("news scrape complete", "scraped", result.Scraped, "saved", result.Saved)
		}
	}
}

func runClassification(ctx context.Context, logger *slog.Logger, database *db.DB, backendName string, limit int) error {
	prompts := prompt.NewRenderer("")

	var backend painscope.Backend
	switch backendName {
	case "groq":
		client, err := groq.NewClient(getEnv("GROQ_API_KEY", ""), getEnv("GROQ_BASE_URL", ""), getEnv("GROQ_MODEL", ""), prompts)
		if err != nil {
			return err
		}
		backend = client
	case "ollama":
		backend = ollama.NewClient(getEnv("OLLAMA_URL", ""), getEnv("OLLAMA_MODEL", ""), prompts)
	default:
		return fmt.Errorf("unknown backend %q", backendName)
	}

	pipeline := painscope.NewPipeline(database, backend, painscope.DefaultConfig())
	pipeline.Progress = func(current, total int) {
		fmt.Printf("Classifying %d/%d\n", current, total)
	}

	stats, err := pipeline.Run(ctx, limit)
	if err != nil {
		return err
	}
	logger.Info("classification complete", "classified", stats.Classified, "pain_points", stats.PainPoints)
	return nil
}
