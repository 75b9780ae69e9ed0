package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RichardKnop/ajxgate/internal/config"
	"github.com/RichardKnop/ajxgate/internal/dispatch"
	"github.com/RichardKnop/ajxgate/internal/engine/sqlite"
	"github.com/RichardKnop/ajxgate/internal/parser"
	"github.com/RichardKnop/ajxgate/internal/pkg/logging"
	"github.com/RichardKnop/ajxgate/internal/protocol"
	"github.com/RichardKnop/ajxgate/internal/session"
)

const workerQueueSize = 64

var (
	configPath   string
	portFlag     int
	httpPortFlag int
	dataDirFlag  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept envelope and HTTP connections",
	Long: `Serve listens on the configured port. Connections starting with the
AJX envelope marker and plain HTTP requests are both accepted there, HTTP can
also get a port of its own with --http-port.

Settings come from defaults, then the optional TOML file, then the PORT,
HTTP_PORT, CHUNK_SIZE, DATA_DIR, SESSION_SCOPE and LOG_LEVEL environment
variables, then flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().IntVarP(&portFlag, "port", "p", config.DefaultPort, "Port for envelope and HTTP connections")
	cmd.Flags().IntVar(&httpPortFlag, "http-port", 0, "Dedicated HTTP port, 0 disables it")
	cmd.Flags().StringVar(&dataDirFlag, "data-dir", config.DefaultDataDir, "Directory holding one file per database")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("port") {
		cfg.Port = portFlag
	}
	if cmd.Flags().Changed("http-port") {
		cfg.HTTPPort = httpPortFlag
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDirFlag
	}

	return cfg, cfg.Validate()
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() // flushes buffer, if any

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	anEngine, err := sqlite.New(cfg.DataDir, logger)
	if err != nil {
		return err
	}

	var (
		aDispatcher = dispatch.New(anEngine, parser.New(logger), logger)
		aWorker     = dispatch.NewWorker(aDispatcher, logger, workerQueueSize)
		global      = session.New()
	)

	srv, err := protocol.NewServer(cfg, aWorker, global, logger)
	if err != nil {
		return err
	}

	logger.Info("starting ajxgate",
		zap.String("version", Version),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.String("data_dir", cfg.DataDir),
		zap.String("session_scope", string(cfg.SessionScope)),
	)

	g, gctx := errgroup.WithContext(ctx)
	aWorker.Start(gctx)
	srv.Serve(gctx)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		srv.Stop()
		aWorker.Stop()
		return global.Close()
	})

	return g.Wait()
}
