package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
	"github.com/mtpython/tg-speech-to-text/internal/auth"
	"github.com/mtpython/tg-speech-to-text/internal/config"
	"github.com/mtpython/tg-speech-to-text/internal/metrics"
	"github.com/mtpython/tg-speech-to-text/internal/queue"
	"github.com/mtpython/tg-speech-to-text/internal/requestlog"
	"github.com/mtpython/tg-speech-to-text/internal/server"
	"github.com/mtpython/tg-speech-to-text/internal/stt"
	"github.com/mtpython/tg-speech-to-text/internal/telegram"
	"github.com/mtpython/tg-speech-to-text/internal/worker"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "tg-speech-to-text"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("stt_provider", cfg.STT.Provider),
		slog.String("stt_language", cfg.STT.Language),
		slog.String("ffmpeg_path", cfg.Audio.FFmpegPath),
		slog.String("data_dir", cfg.Storage.DataDir),
		slog.Bool("http_enabled", cfg.HTTP.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Load the authorized user set
	authStore := auth.Load(filepath.Join(cfg.Storage.DataDir, "authorized_users.json"), logger)

	// Initialize queue and statistics
	jobQueue := queue.New()
	stats := queue.NewStatistics()

	// Initialize audio converter
	converter := audio.NewConverter(cfg.Audio.FFmpegPath, logger)

	// Initialize speech-to-text client
	provider := cfg.STT.GetProvider()
	sttClient, err := newSTTClient(cfg, provider, logger)
	if err != nil {
		logger.Error("Failed to create speech-to-text client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Speech-to-text client initialized", slog.String("provider", provider.String()))

	// Initialize Telegram bot
	bot, err := telegram.New(telegram.Config{
		Token:    cfg.Telegram.Token,
		Password: cfg.Telegram.Password,
	}, jobQueue, stats, authStore, appMetrics, logger)
	if err != nil {
		logger.Error("Failed to create telegram bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the queue consumer
	proc := worker.New(worker.Options{
		Queue:       jobQueue,
		Stats:       stats,
		Converter:   converter,
		Transcriber: sttClient,
		Provider:    provider,
		Messenger:   bot.Sender(),
		RequestLog:  requestlog.New(filepath.Join(cfg.Storage.DataDir, "logs", "transcription_requests.log")),
		Recorder:    appMetrics,
		Logger:      logger,
	})

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpConfig := server.HTTPServerConfig{
			Port:    cfg.HTTP.Port,
			Address: cfg.HTTP.Address,
			Enabled: cfg.HTTP.Enabled,
		}
		httpServer = server.NewHTTPServer(httpConfig, logger, jobQueue, stats, appMetrics, provider.String())
		logger.Info("HTTP API server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	// Start the worker
	var workerWG sync.WaitGroup
	workerWG.Add(1)
	go func() {
		defer workerWG.Done()
		proc.Run(ctx)
	}()

	// Start HTTP server (if enabled)
	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Start Telegram polling
	go bot.Start()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop accepting new submissions
	bot.Stop()

	// Close the queue; the worker drains what is left and exits
	jobQueue.Close()
	workerWG.Wait()

	// Stop HTTP server last so monitoring stays up through the drain
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Get final statistics
	snap := stats.Snapshot()
	logger.Info("Final queue statistics",
		slog.Uint64("total_queued", snap.TotalQueued),
		slog.Uint64("total_processed", snap.TotalProcessed),
		slog.Uint64("total_failed", snap.TotalFailed),
	)

	logger.Info("Service stopped")
}

// newSTTClient builds the provider client from configuration, reading the
// Google service account file when that provider is selected.
func newSTTClient(cfg *config.Config, provider stt.Provider, logger *slog.Logger) (*stt.Client, error) {
	sttCfg := stt.Config{
		Provider:      provider,
		OpenAIKey:     cfg.STT.OpenAIAPIKey,
		ElevenLabsKey: cfg.STT.ElevenLabsAPIKey,
		Language:      cfg.STT.Language,
		Timeout:       cfg.STT.GetTimeoutDuration(),
	}

	if provider == stt.ProviderGoogle {
		creds, err := os.ReadFile(cfg.STT.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read google credentials file: %w", err)
		}
		sttCfg.GoogleCredentials = string(creds)
	}

	return stt.NewClient(sttCfg, logger)
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
