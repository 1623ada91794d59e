package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/content-comb/app/api"
	"github.com/lysyi3m/content-comb/app/cfg"
	"github.com/lysyi3m/content-comb/app/classify"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/fetch"
	"github.com/lysyi3m/content-comb/app/ingest"
	"github.com/lysyi3m/content-comb/app/platform"
	"github.com/lysyi3m/content-comb/app/sources"
	"github.com/lysyi3m/content-comb/app/tasks"
	"github.com/lysyi3m/content-comb/app/transform"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Content Comb server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	if dirty {
		slog.Error("Database schema is in a dirty state, refusing to start", "schema_version", version)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version)

	sourceRepo := database.NewSourceRepository(db)
	articleRepo := database.NewArticleRepository(db)
	transformationRepo := database.NewTransformationRepository(db)

	seedLoader := sources.NewLoader(appCfg.SourcesDir)
	seeds, err := seedLoader.LoadAll()
	if err != nil {
		slog.Error("Failed to load source seeds", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	if err := sources.Sync(seeds, sourceRepo); err != nil {
		slog.Error("Failed to sync source seeds", "error", err)
		os.Exit(1)
	}

	fetchClient := fetch.NewClient(appCfg.ProxyURLs,
		time.Duration(appCfg.FetchTimeout)*time.Second, appCfg.UserAgent)

	var generator classify.Generator
	if appCfg.GeminiAPIKey != "" {
		geminiGenerator, err := classify.NewGeminiGenerator(context.Background(),
			appCfg.GeminiAPIKey, appCfg.ClassifyModel,
			appCfg.ClassifyTemperature, appCfg.ClassifyMaxTokens)
		if err != nil {
			slog.Error("Failed to initialize classification", "error", err)
			os.Exit(1)
		}
		generator = geminiGenerator
		slog.Info("Classification enabled", "model", appCfg.ClassifyModel)
	} else {
		slog.Info("Classification disabled (GEMINI_API_KEY not set)")
	}
	classifier := classify.NewClassifier(generator)

	importers := platform.NewRegistry(
		platform.NewWordPressImporter(fetchClient, appCfg.ImportMaxItems),
		platform.NewYouTubeImporter(fetchClient, appCfg.YouTubeAPIKey, appCfg.ImportMaxItems),
	)

	ingestor := ingest.NewIngestor(fetchClient, feed.NewParser(), classifier,
		importers, sourceRepo, articleRepo)
	refresher := ingest.NewRefresher(sourceRepo, ingestor)
	transformer := transform.NewTransformer(transformationRepo)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(sourceRepo, articleRepo, ingestor, seedLoader)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(sourceRepo, articleRepo, ingestor, refresher, transformer)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
