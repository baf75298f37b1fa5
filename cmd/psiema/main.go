package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/handlers"
	"github.com/johnjames-bit/psiema/internal/marketdata"
	"github.com/johnjames-bit/psiema/internal/server"
	"github.com/johnjames-bit/psiema/internal/services/events"
	"github.com/johnjames-bit/psiema/internal/services/llm"
	"github.com/johnjames-bit/psiema/internal/services/observer"
	"github.com/johnjames-bit/psiema/internal/storage"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	oneShot      = flag.String("ticker", "", "Observe a single ticker, print the result as JSON and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("PsiEMA version %s\n", common.LoadVersionFromFile())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("psiema.toml"); err == nil {
			configFiles = append(configFiles, "psiema.toml")
		}
	}

	// Startup sequence: config, CLI overrides, logger, banner
	config, err := common.LoadConfig(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}
	if finalPort != 0 {
		config.Server.Port = finalPort
	}
	if *serverHost != "" {
		config.Server.Host = *serverHost
	}

	logger := common.InitLogger(config)
	common.InstallCrashHandler("./logs")
	common.PrintBanner(common.LoadVersionFromFile())

	logger.Info().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Msg("Application configuration loaded")

	// Storage
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
		os.Exit(1)
	}
	defer storageManager.Close()

	// Market data client
	clientOpts := []marketdata.ClientOption{
		marketdata.WithLogger(logger),
	}
	if config.MarketData.BaseURL != "" {
		clientOpts = append(clientOpts, marketdata.WithBaseURL(config.MarketData.BaseURL))
	}
	if config.MarketData.RateLimit > 0 {
		clientOpts = append(clientOpts, marketdata.WithRateLimit(config.MarketData.RateLimit))
	}
	if config.MarketData.Timeout != "" {
		if timeout, err := time.ParseDuration(config.MarketData.Timeout); err == nil {
			clientOpts = append(clientOpts, marketdata.WithHTTPClient(&http.Client{Timeout: timeout}))
		} else {
			logger.Warn().Str("timeout", config.MarketData.Timeout).Msg("Invalid market data timeout, using default")
		}
	}
	client := marketdata.NewClient(config.MarketData.APIKey, clientOpts...)

	ctx := context.Background()

	// Services
	eventService := events.NewService(logger)
	defer eventService.Close()

	narrator := llm.NewNarratorFromConfig(ctx, config, logger)
	defer narrator.Close()

	observerService := observer.NewService(client, storageManager, narrator, eventService, &config.MarketData, logger)

	// One-shot mode: observe, print, exit
	if *oneShot != "" {
		runOnce(ctx, observerService, *oneShot, logger)
		return
	}

	// Watchlist scheduler
	scheduler := observer.NewScheduler(observerService, eventService, &config.Scheduler, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		os.Exit(1)
	}
	defer scheduler.Stop()

	// HTTP surface
	analysisHandler := handlers.NewAnalysisHandler(observerService, storageManager.AnalysisStorage(), logger)
	statusHandler := handlers.NewStatusHandler(storageManager.AnalysisStorage(), logger)
	wsHandler := handlers.NewWebSocketHandler(eventService, logger)

	srv := server.New(config, logger, analysisHandler, statusHandler, wsHandler)

	go func() {
		defer common.RecoverWithCrashFile()
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
			os.Exit(1)
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}

// runOnce runs a single observation and prints the stored record.
func runOnce(ctx context.Context, observerService *observer.Service, ticker string, logger arbor.ILogger) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	record, err := observerService.Observe(runCtx, ticker)
	if err != nil {
		logger.Fatal().Str("ticker", ticker).Err(err).Msg("Observation failed")
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		logger.Fatal().Err(err).Msg("Failed to encode result")
		os.Exit(1)
	}
}
