package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"graph_server/config"
	"graph_server/core/domain"
	graphsvc "graph_server/core/service/graph"
	"graph_server/internal/bootstrap"
	"graph_server/pkg/logger"

	"github.com/goccy/go-json"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
	commandTimeout  = 60 * time.Second
)

func main() {
	// Load .env file if exists (for local development)
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	mode := flag.String("mode", "serve", "Run mode: serve, probe, schema, help")
	format := flag.String("format", "text", "Output format for schema mode: text, json")
	database := flag.String("database", "", "Database for schema mode (default: NEO4J_DATABASE)")
	flag.Parse()

	if *mode == "help" {
		fmt.Print(domain.CypherHelp)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Service: "graph_server",
		Pretty:  cfg.LogPretty,
		Output:  os.Stderr,
	})
	logger.Debug("Loaded config: %s", cfg.Graph)

	switch *mode {
	case "serve":
		runServer(cfg)
	case "probe":
		os.Exit(runProbe(cfg))
	case "schema":
		os.Exit(runSchema(cfg, *database, *format))
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

func runServer(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.NewAPI(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("Error shutting down: %v", err)
		} else {
			logger.Info("API server shut down gracefully")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Error("Server stopped: %v", err)
	}
}

// runProbe prints the connection status and exits non-zero when disconnected.
func runProbe(cfg *config.Config) int {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	deps, cleanup, err := bootstrap.NewDependencies(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize: %v", err)
		return 1
	}
	defer cleanup()

	status := deps.Graph.TestConnection(ctx)
	printJSON(status)
	if !status.Connected {
		return 1
	}
	return 0
}

func runSchema(cfg *config.Config, database, format string) int {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	deps, cleanup, err := bootstrap.NewDependencies(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize: %v", err)
		return 1
	}
	defer cleanup()

	if err := deps.Graph.Connect(ctx); err != nil {
		logger.Error("Failed to connect: %v", err)
		return 1
	}

	snapshot, err := deps.Graph.GetSchema(ctx, database)
	if err != nil {
		logger.Error("Failed to read schema: %v", err)
		return 1
	}

	if format == "json" {
		printJSON(snapshot)
	} else {
		fmt.Println(graphsvc.FormatSchema(snapshot))
	}
	return 0
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Error("Failed to encode output: %v", err)
		return
	}
	fmt.Println(string(out))
}
