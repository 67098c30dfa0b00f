package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dloop-protocol/bridge-engine/pkg/api"
	"github.com/dloop-protocol/bridge-engine/pkg/bridge"
	"github.com/dloop-protocol/bridge-engine/pkg/config"
	"github.com/dloop-protocol/bridge-engine/pkg/events"
	"github.com/dloop-protocol/bridge-engine/pkg/httpserver"
	"github.com/dloop-protocol/bridge-engine/pkg/pgutil"
	"github.com/dloop-protocol/bridge-engine/pkg/store"
)

const (
	defaultGracefulShutdownTimeout = 30 * time.Second
	defaultEventBufferSize         = 256
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Bridge engine exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting bridge engine",
		zap.String("source_network", cfg.Bridge.SourceNetwork),
		zap.String("target_network", cfg.Bridge.TargetNetwork))

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect bridge db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("Database connection established")

	bus := events.NewBus(defaultEventBufferSize, logger)
	defer bus.Close()

	controllerCfg, err := controllerConfig(&cfg.Bridge)
	if err != nil {
		return err
	}

	controller, err := bridge.NewController(ctx, store.New(db), controllerCfg, bus, logger)
	if err != nil {
		return fmt.Errorf("initialize controller: %w", err)
	}

	ready := func() bool { return db.PingContext(ctx) == nil }
	server := api.NewServer(controller, ready, logger)
	router := server.Router(cfg.Monitoring)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := api.NewHTTPServer(serverAddr, router)

	return httpserver.ServeAndWait(ctx, logger, httpSrv, defaultGracefulShutdownTimeout)
}

func controllerConfig(cfg *config.BridgeConfig) (bridge.Config, error) {
	out := bridge.Config{
		SourceNetwork:       cfg.SourceNetwork,
		TargetNetwork:       cfg.TargetNetwork,
		AdminID:             cfg.AdminID,
		Cooldown:            cfg.Cooldown,
		TimelockDuration:    cfg.TimelockDuration,
		LivenessTimeout:     cfg.LivenessTimeout,
		BootstrapValidators: cfg.Validators,
		BootstrapThreshold:  cfg.ValidatorThreshold,
	}
	if cfg.MaxTransferAmount != "" {
		maxAmount, ok := new(big.Int).SetString(cfg.MaxTransferAmount, 10)
		if !ok {
			return bridge.Config{}, fmt.Errorf("invalid bridge.max_transfer_amount: %q", cfg.MaxTransferAmount)
		}
		out.MaxTransferAmount = maxAmount
	}
	return out, nil
}
