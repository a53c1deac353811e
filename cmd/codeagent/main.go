// codeagent runs the agentic code-modification runtime - an HTTP/WebSocket
// server that accepts user requests, drives them through the Agent
// Pipeline, and streams progress back to the caller.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeagent-run/codeagent/internal/session"
	"github.com/codeagent-run/codeagent/internal/store"
	"github.com/codeagent-run/codeagent/pkg/api"
	"github.com/codeagent-run/codeagent/pkg/cleanup"
	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/database"
	"github.com/codeagent-run/codeagent/pkg/feedback"
	"github.com/codeagent-run/codeagent/pkg/llm"
	"github.com/codeagent-run/codeagent/pkg/mcp"
	"github.com/codeagent-run/codeagent/pkg/notify"
	"github.com/codeagent-run/codeagent/pkg/projectindex"
	"github.com/codeagent-run/codeagent/pkg/redact"
	"github.com/codeagent-run/codeagent/pkg/stage"
	"github.com/codeagent-run/codeagent/pkg/validator"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	projectRoot := flag.String("project-root",
		getEnv("PROJECT_ROOT", "."),
		"Path to the project this server modifies")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	ginMode := getEnv("GIN_MODE", "debug")

	logger := slog.Default()
	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}
	stats := cfg.Stats()
	log.Printf("configuration loaded: %d models, %d tool servers", stats.Models, stats.ToolServers)

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("error closing database client: %v", err)
		}
	}()
	log.Println("connected to PostgreSQL, migrations applied")

	st := store.New(dbClient.DB())

	dispatcher := llm.NewDispatcher(cfg.Models, cfg.Dispatch, logger)

	redactor := redact.NewService(cfg.ToolServers, cfg.Masking)

	index, err := projectindex.NewClient(*projectRoot, logger)
	if err != nil {
		log.Fatalf("failed to build project index: %v", err)
	}
	defer func() { _ = index.Close() }()
	go func() {
		if err := index.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.Error("project index watch stopped", "error", err)
		}
	}()

	validatorPipeline := validator.New(cfg, validator.Deps{
		Resolver: index,
		Logger:   logger,
		// SyntaxFixer, PackageIndex, TypeChecker, Interpreter,
		// TestDiscoverer and TestRunner are left nil: each level degrades
		// to a single INFO "skipped" issue (validator.Deps' own doc
		// comment) rather than a fabricated pass. Wiring real per-language
		// toolchains is future work, not a silent correctness gap.
	})

	feedbackController := feedback.New(cfg.Budgets)
	stageEngine := stage.NewEngine()

	var notifier notify.Notifier = notify.Noop{}
	if slackNotifier := notify.NewSlackNotifier(notify.SlackConfig{
		Token:        os.Getenv("SLACK_BOT_TOKEN"),
		Channel:      os.Getenv("SLACK_CHANNEL"),
		DashboardURL: cfg.DashboardURL,
	}, redactor); slackNotifier != nil {
		notifier = slackNotifier
	}

	mcpFactory := mcp.NewClientFactory(cfg.ToolServers, redactor)
	externalClient, mcpClient, err := mcpFactory.CreateExternalClient(ctx, cfg.ToolServers.ServerIDs())
	if err != nil {
		log.Fatalf("failed to initialize MCP tool servers: %v", err)
	}
	defer func() { _ = mcpClient.Close() }()
	if failed := mcpClient.FailedServers(); len(failed) > 0 {
		logger.Warn("some MCP tool servers failed to initialize", "failed", failed)
	}

	healthMonitor := mcp.NewHealthMonitor(mcpFactory, cfg.ToolServers)
	healthMonitor.Start(ctx)
	defer healthMonitor.Stop()

	queueCfg := config.QueueConfig{}
	if cfg.Queue != nil {
		queueCfg = *cfg.Queue
	}

	manager := session.NewManager(session.SharedDeps{
		Dispatcher: dispatcher,
		Config:     cfg,
		Index:      index,
		Validator:  validatorPipeline,
		Feedback:   feedbackController,
		Stage:      stageEngine,
		Redact:     redactor,
		Notify:     notifier,
		External:   externalClient,
		Resolver:   index,
		CodeIndex:  index,
		// TestRunner and Packages are left nil for the same reason as
		// validator.Deps above: pkg/tools' own doc comments describe the
		// nil-safe "not available for this session" degradation.
		Logger: logger,
	}, st, queueCfg)

	retentionCfg := config.DefaultRetentionConfig()
	if cfg.Retention != nil {
		retentionCfg = cfg.Retention
	}
	cleanupService := cleanup.NewService(retentionCfg, st, logger)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	server := api.NewServer(api.Deps{
		Manager:          manager,
		Store:            st,
		Config:           cfg,
		Logger:           logger,
		GinMode:          ginMode,
		AllowedWSOrigins: cfg.AllowedWSOrigins,
	})

	httpServer := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("codeagent listening on :%s", httpPort)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
