package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/config"
	"github.com/agenthands/profitgraph/internal/core"
	"github.com/agenthands/profitgraph/internal/driver"
	"github.com/agenthands/profitgraph/internal/llm"
	"github.com/agenthands/profitgraph/internal/logger"
	"github.com/agenthands/profitgraph/internal/research"
	"github.com/agenthands/profitgraph/internal/tracing"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "profitgraph",
	Short: "Turn video transcripts into a strategy knowledge graph",
	Long: `profitgraph runs each unprocessed transcript through the
Strategist, Scout and Architect stages and merges the resulting brief,
research dossier and entities into Neo4j. A separate refine pass derives
typed relationships between entities already in the graph.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("PROFITGRAPH_CONFIG"), "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(runCmd, refineCmd, serveCmd, pendingCmd, setupCmd, checkCmd, clustersCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds everything a command needs. graph is nil when Neo4j is not
// configured.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *artifacts.Store
	graph    driver.GraphDriver
	pipeline *core.Pipeline

	shutdownTracing func(context.Context) error
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// newApp builds the full pipeline. Missing credentials fail here, before
// any stage runs.
func newApp(ctx context.Context) (*app, error) {
	return buildApp(ctx, (*config.Config).Validate)
}

// newRefineApp is newApp for the refine pass, which never calls the
// research API but cannot run without Neo4j.
func newRefineApp(ctx context.Context) (*app, error) {
	return buildApp(ctx, (*config.Config).ValidateRefiner)
}

func buildApp(ctx context.Context, validate func(*config.Config) error) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	shutdown, err := tracing.Init(ctx, cfg.Tracing, log)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	researchClient := research.NewSonarClient(cfg.Research, cfg.Prompts.ScoutSystem)

	a := &app{cfg: cfg, log: log, shutdownTracing: shutdown}
	a.store = artifacts.NewStore(cfg.Storage, log)

	if cfg.Neo4j.Enabled() {
		d, err := driver.NewNeo4jDriver(ctx, cfg.Neo4j, log)
		if err != nil {
			// a nil graph would mean "sync disabled" and mark cases as done
			return nil, fmt.Errorf("neo4j is configured but unreachable: %w", err)
		}
		a.graph = d
	} else {
		log.Info("neo4j not configured, graph sync disabled")
	}

	a.pipeline = core.NewPipeline(cfg, a.store, llmClient, researchClient, a.graph, log)
	return a, nil
}

// newGraphApp is for commands that only talk to Neo4j.
func newGraphApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if !cfg.Neo4j.Enabled() {
		return nil, fmt.Errorf("neo4j is not configured: set NEO4J_URI and NEO4J_PASSWORD")
	}
	d, err := driver.NewNeo4jDriver(ctx, cfg.Neo4j, log)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:             cfg,
		log:             log,
		graph:           d,
		shutdownTracing: func(context.Context) error { return nil },
	}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.graph != nil {
		if err := a.graph.Close(ctx); err != nil {
			a.log.Warn("failed to close neo4j driver", "error", err)
		}
	}
	if err := a.shutdownTracing(ctx); err != nil {
		a.log.Warn("failed to flush traces", "error", err)
	}
	a.log.Sync()
}
