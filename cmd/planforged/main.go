// Planforged is the planforge daemon: it serves the brief and plan
// generation HTTP API backed by an OpenAI-compatible model provider.
//
// Usage:
//
//	# Start with defaults (Groq provider, port 8086)
//	PLANFORGE_LLM_API_KEY=... planforged
//
//	# Start with a config file
//	planforged -config /etc/planforge/config.yaml
//
//	planforged version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planforge/internal/config"
	"github.com/fyrsmithlabs/planforge/internal/generator"
	"github.com/fyrsmithlabs/planforge/internal/httpapi"
	"github.com/fyrsmithlabs/planforge/internal/logging"
	"github.com/fyrsmithlabs/planforge/internal/stage"
	"github.com/fyrsmithlabs/planforge/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  planforged           Start the planforge daemon\n")
			fmt.Fprintf(os.Stderr, "  planforged version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("planforged by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting planforged",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	client, err := stage.NewHTTPChatClient(stage.ClientConfig{
		Provider:          cfg.LLM.Provider,
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		Timeout:           time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		RequestsPerMinute: float64(cfg.LLM.RequestsPerMinute),
		Burst:             cfg.LLM.Burst,
	})
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	adapter := stage.NewLLMAdapter(client, logger)
	gen := generator.NewService(adapter, generator.Options{
		AutoIterate:      cfg.Pipeline.AutoIterate,
		MaxIterations:    cfg.Pipeline.MaxIterations,
		QualityThreshold: cfg.Pipeline.QualityThreshold,
		RetryCount:       cfg.Pipeline.RetryCount,
		StageTimeout:     time.Duration(cfg.Pipeline.StageTimeoutSeconds) * time.Second,
	}, logger)

	srv, err := httpapi.NewServer(gen, st, logger, &httpapi.Config{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		APIKey: cfg.Server.APIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
