package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ShreedharDynamicCraft/financeautomation/constants"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/common"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/extract"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/jobs"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/llm/gemini"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/logging"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/server"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/workbook"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("app", constants.AppName),
		slog.String("version", constants.Version),
		slog.String("model", cfg.LLM.Model),
	)

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	extractor := extract.NewExtractor(extract.Config{
		Pdftotext: cfg.Extract.Pdftotext,
		Pdftoppm:  cfg.Extract.Pdftoppm,
		Tesseract: cfg.Extract.Tesseract,
		DPI:       cfg.Extract.DPI,
		MaxPages:  cfg.Extract.MaxPages,
	}, logger)

	llmClient := gemini.NewClient(gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	renderer := workbook.NewXLSXRenderer(logger)

	registry := jobs.NewRegistry(logger,
		jobs.WithTTL(cfg.Jobs.TTL),
		jobs.WithSweepInterval(cfg.Jobs.SweepInterval),
	)
	defer registry.Close()

	runner := jobs.NewRunner(registry, extractor, llmClient, renderer, cfg.Storage.OutputDir, logger)
	queue := jobs.NewQueue(runner, logger,
		jobs.WithWorkers(cfg.Jobs.Workers),
		jobs.WithQueueSize(cfg.Jobs.QueueSize),
		jobs.WithJobTimeout(cfg.Jobs.JobTimeout),
	)

	srv := server.New(cfg.Storage, registry, queue, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Jobs.JobTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("http shutdown error", slog.Any("error", err))
	}
	queue.Shutdown(ctx)

	logger.Info("shutdown complete")
	return nil
}
