package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goran-ethernal/GridIndexor/internal/common"
	"github.com/goran-ethernal/GridIndexor/internal/config"
	"github.com/goran-ethernal/GridIndexor/internal/indexer"
	"github.com/goran-ethernal/GridIndexor/internal/logger"
	"github.com/goran-ethernal/GridIndexor/internal/metrics"
	"github.com/goran-ethernal/GridIndexor/internal/rpc"
	"github.com/goran-ethernal/GridIndexor/pkg/api"
	pkgconfig "github.com/goran-ethernal/GridIndexor/pkg/config"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║          GridIndexor v%s                ║
║     Grid Order Book Event Indexer         ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gridindexor",
	Short: "GridIndexor - grid order book event indexer",
	Long: `GridIndexor follows the OrderPlaced and TickSettled events of a grid order book
contract. It backfills recent history, polls for new blocks, keeps a bounded
in-memory record of events and serves derived metrics over a read-only HTTP API.`,
	Version: version,
	RunE:    runIndexer,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the indexer (default command)",
	RunE:  runIndexer,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := &jsonschema.Reflector{FieldNameTag: "json"}
		schema := reflector.Reflect(&pkgconfig.Config{})

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "GridIndexor v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(runCmd, schemaCmd, versionCmd)
}

func runIndexer(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewComponentLoggerFromConfig(common.ComponentIndexer, cfg.Logging)
	logger.SetDefaultLogger(log)

	log.Info("Connecting to RPC node...")
	client, err := rpc.NewClient(ctx, cfg.RPC,
		logger.NewComponentLoggerFromConfig(common.ComponentRPC, cfg.Logging))
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer client.Close()
	log.Infof("Connected to RPC node: %s", cfg.RPC.URL)

	idx := indexer.New(cfg.Indexer, client, cfg.Logging)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics,
			logger.NewComponentLoggerFromConfig(common.ComponentMetricsServer, cfg.Logging))
		g.Go(func() error {
			return metricsServer.Run(ctx)
		})
	}

	if cfg.API != nil && cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, idx,
			logger.NewComponentLoggerFromConfig(common.ComponentAPI, cfg.Logging))
		g.Go(func() error {
			return apiServer.Start(ctx)
		})
	}

	g.Go(func() error {
		return idx.Run(ctx)
	})

	log.Info("Starting GridIndexor...")

	if err := g.Wait(); err != nil {
		return fmt.Errorf("GridIndexor failed: %w", err)
	}

	log.Info("GridIndexor stopped successfully")
	return nil
}
