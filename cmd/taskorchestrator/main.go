// Command taskorchestrator runs the task orchestrator MCP server.
//
// It communicates over stdio or Streamable HTTP (JSON-RPC 2.0, MCP protocol)
// and keeps all project/feature/task state in an in-process repository.
//
// Optional environment variables:
//
//	TASKORCHESTRATOR_CONFIG             - path to config.yaml
//	TASKORCHESTRATOR_TRANSPORT          - "stdio" or "http" (default: stdio)
//	TASKORCHESTRATOR_PORT               - HTTP listen port (default: 8420)
//	TASKORCHESTRATOR_HOST               - HTTP listen address (default: 0.0.0.0)
//	TASKORCHESTRATOR_CORS_ORIGINS       - comma-separated CORS allow-list
//	TASKORCHESTRATOR_LOG_LEVEL          - debug, info, warn, error (default: info)
//	TASKORCHESTRATOR_AUTO_CASCADE_ENABLED    - true/false
//	TASKORCHESTRATOR_AUTO_CASCADE_MAX_DEPTH  - integer
//	TASKORCHESTRATOR_CLEANUP_ENABLED         - true/false
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/taskorchestrator/mcp-server/internal/cascade"
	"github.com/taskorchestrator/mcp-server/internal/config"
	"github.com/taskorchestrator/mcp-server/internal/content"
	"github.com/taskorchestrator/mcp-server/internal/lock"
	"github.com/taskorchestrator/mcp-server/internal/mcp"
	"github.com/taskorchestrator/mcp-server/internal/repository/memory"
	"github.com/taskorchestrator/mcp-server/internal/template"
	"github.com/taskorchestrator/mcp-server/internal/tools/container"
	"github.com/taskorchestrator/mcp-server/internal/tools/query"
	"github.com/taskorchestrator/mcp-server/internal/tools/transition"
	"github.com/taskorchestrator/mcp-server/internal/validator"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskorchestrator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.yaml (overrides TASKORCHESTRATOR_CONFIG and the default search path)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	version := cfg.Server.Version
	if Version != "dev" {
		version = Version
	}
	logger.Info("starting taskorchestrator", "version", version, "transport", cfg.Transport.Mode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := memory.NewStore(nil)
	repos := store.Repositories()

	if _, err := template.Seed(ctx, repos.Templates, nil, false); err != nil {
		return fmt.Errorf("seeding built-in templates: %w", err)
	}

	flowRegistry := workflow.NewRegistry()
	progression := workflow.NewService(flowRegistry, repos)
	v := validator.New(progression)
	cleanup := cascade.NewCleanupService(repos, cfg.Cleanup)
	cascadeSvc := cascade.New(repos, progression, v, cleanup, cfg.AutoCascade, logger)
	templates := template.New(repos.Templates)
	locks := lock.NewRegistry()

	registry := mcp.NewRegistry()

	registry.Register(container.New(repos, templates, locks, v, cascadeSvc, progression, cfg.AutoCascade.Enabled, logger))

	requestTransition := transition.New(repos, v, cascadeSvc, locks, cfg.AutoCascade.Enabled, logger)
	registry.Register(requestTransition)
	registry.Register(transition.NewSetStatus(repos, requestTransition))

	registry.Register(query.NewQueryContainer(repos, progression))
	registry.Register(query.NewGetNextTask(repos, progression))
	registry.Register(query.NewGetBlockedTasks(repos, progression))
	registry.Register(query.NewGetOverview(repos, progression))

	registry.RegisterPrompt(&content.PlanProjectPrompt{})
	registry.RegisterPrompt(&content.AdvanceStatusPrompt{})

	registry.RegisterResource(&content.EntityModelResource{})
	registry.RegisterResource(&content.GuardrailsResource{})
	registry.RegisterResource(&content.ToolReferenceResource{})

	server := mcp.NewServer(registry, mcp.ServerInfo{Name: cfg.Server.Name, Version: version}, logger)

	switch cfg.Transport.Mode {
	case "http":
		return runHTTP(ctx, server, cfg, logger)
	default:
		return server.Run(ctx)
	}
}

func runHTTP(ctx context.Context, server *mcp.Server, cfg *config.Config, logger *slog.Logger) error {
	httpServer := mcp.NewHTTPServer(server, cfg.Transport.CORSOrigins, logger)
	addr := cfg.Transport.Host + ":" + cfg.Transport.Port

	srv := &http.Server{Addr: addr, Handler: httpServer.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
