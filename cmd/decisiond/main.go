// Decisiond is an adaptive personalization daemon.
//
// This binary starts the decisiond HTTP server with full engine
// initialization: feature provider, user embedding engine, contextual
// bandit, decision engine, and style/content adapters.
//
// Configuration is loaded from a YAML file and environment variables.
// See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	decisiond
//
//	# Configure via flags and environment
//	decisiond -config ./config.yaml
//	SERVER_PORT=9090 BANDIT_ALGORITHM=ucb decisiond
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/config"
	"github.com/fyrsmithlabs/decisiond/internal/decision"
	"github.com/fyrsmithlabs/decisiond/internal/embedding/chromemstore"
	"github.com/fyrsmithlabs/decisiond/internal/events"
	"github.com/fyrsmithlabs/decisiond/internal/feature"
	"github.com/fyrsmithlabs/decisiond/internal/logging"
	"github.com/fyrsmithlabs/decisiond/internal/server"
	"github.com/fyrsmithlabs/decisiond/internal/telemetry"
	"github.com/fyrsmithlabs/decisiond/pkg/decisiond"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  decisiond           Start the decisiond daemon\n")
			fmt.Fprintf(os.Stderr, "  decisiond version   Show version information\n")
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

// printVersion prints version information
func printVersion() {
	fmt.Printf("decisiond by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the decisiond server and blocks until context is
// cancelled.
//
// This function initializes all dependencies:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Builds the feature provider (with optional fixture)
//  4. Wires the decision core (embedding store per config)
//  5. Attaches the optional NATS event sink
//  6. Starts the HTTP server
//
// Returns nil on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "Starting decisiond",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("bandit_algorithm", string(cfg.Bandit.Algorithm)),
		zap.String("store_provider", cfg.Store.Provider))
	logger.Trace(ctx, "Effective configuration",
		zap.Any("bandit", cfg.Bandit),
		zap.Any("embedding", cfg.Embedding),
		zap.Any("decision", cfg.Decision))

	tel, err := telemetry.Setup("decisiond", version, logger.Underlying())
	if err != nil {
		logger.Warn(ctx, "Telemetry setup failed, metrics disabled", zap.Error(err))
	} else {
		defer func() {
			_ = tel.Shutdown(context.Background())
		}()
	}

	provider := feature.NewStaticProvider()
	fixtureUsers, err := loadFixture(cfg.Features.Fixture, provider)
	if err != nil {
		return fmt.Errorf("failed to load feature fixture: %w", err)
	}
	if len(fixtureUsers) > 0 {
		logger.Info(ctx, "Feature fixture loaded",
			zap.String("path", cfg.Features.Fixture),
			zap.Int("users", len(fixtureUsers)))
	}

	coreOpts := []decisiond.CoreOption{
		decisiond.WithLogger(logger.Underlying()),
	}

	var store *chromemstore.Store
	if cfg.Store.Provider == "chromem" {
		store, err = chromemstore.New(chromemstore.Config{
			Path:     cfg.Store.Path,
			Compress: cfg.Store.Compress,
		}, logger.Underlying().Named("chromemstore"))
		if err != nil {
			return fmt.Errorf("failed to open embedding store: %w", err)
		}
		coreOpts = append(coreOpts, decisiond.WithEmbeddingStore(store))
	}

	core, err := decisiond.New(decisiond.Config{
		Bandit:    cfg.Bandit,
		Embedding: cfg.Embedding,
		Decision: decision.Config{
			EnableBandit:    !cfg.Decision.DisableBandit,
			EnableEmbedding: !cfg.Decision.DisableEmbedding,
			CacheTTL:        cfg.Decision.CacheTTL.Duration(),
		},
	}, provider, coreOpts...)
	if err != nil {
		return fmt.Errorf("failed to wire decision core: %w", err)
	}

	if store != nil && len(fixtureUsers) > 0 {
		recovered := store.Warm(ctx, fixtureUsers)
		logger.Info(ctx, "Embedding store warmed",
			zap.Int("recovered", recovered),
			zap.Int("requested", len(fixtureUsers)))
	}

	if cfg.Events.NATSURL != "" {
		sink, err := events.NewNATSSink(core.Bus, events.NATSSinkConfig{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
		}, logger.Underlying().Named("nats"))
		if err != nil {
			logger.Warn(ctx, "NATS sink unavailable, events stay in-process",
				zap.String("url", cfg.Events.NATSURL),
				zap.Error(err))
		} else {
			defer sink.Close(core.Bus)
			logger.Info(ctx, "NATS event sink attached",
				zap.String("url", cfg.Events.NATSURL),
				zap.String("subject_prefix", cfg.Events.SubjectPrefix))
		}
	}

	srv := server.NewServer(cfg, core, provider, logger.Underlying().Named("http"))

	logger.Info(ctx, "Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/healthz", cfg.Server.Port)),
		zap.String("decide_endpoint", "/v1/decide"),
		zap.String("metrics_endpoint", "/metrics"))

	if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// loadFixture loads a YAML file of per-user feature values into the
// provider and returns the loaded user ids sorted. An empty path is a
// no-op.
func loadFixture(path string, provider *feature.StaticProvider) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var users map[string]map[string]float64
	if err := k.Unmarshal("", &users); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", path, err)
	}

	ids := make([]string, 0, len(users))
	for userID, values := range users {
		provider.Set(userID, feature.FromValues(values))
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids, nil
}
