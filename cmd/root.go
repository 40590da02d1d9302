package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chunkflow/chunkflow/config"
	"github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/logs"
	"github.com/chunkflow/chunkflow/outputs/batch"
	"github.com/chunkflow/chunkflow/outputs/formats"
	"github.com/chunkflow/chunkflow/outputs/stream"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chunkflow",
	Short: "Run dataflow graphs over chunked columnar data.",
	Example: `chunkflow run pipeline.yml
chunkflow run pipeline.yml --output csv --order-by revenue --descending --limit 10
chunkflow tpch c --data ./tpch-sf1
chunkflow explain pipeline.yml`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(profileMode) {
		case "":
		case "cpu":
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
		case "mem":
			profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
		case "trace":
			profiler = profile.Start(profile.TraceProfile, profile.ProfilePath("."), profile.Quiet)
		default:
			return fmt.Errorf("invalid profile mode %s, expected one of cpu, mem, trace", profileMode)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
		}
	},
}

func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	logs.CloseLogger()
	cobra.CheckErr(err)
}

var configPath string
var profileMode string
var profiler interface{ Stop() }

var outputFormat string
var orderBy string
var descending bool
var limit int
var live bool
var streamOutput bool
var progress bool
var batchSize int

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file, ~/.chunkflow/config.yml by default.")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "", "Write a cpu, mem or trace profile to the working directory.")
}

// addOutputFlags registers the flags of commands which run a graph and print its result.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: table, csv or json. Overrides the configuration.")
	cmd.Flags().StringVar(&orderBy, "order-by", "", "Column to order the final result by.")
	cmd.Flags().BoolVar(&descending, "descending", false, "Order the final result in descending order.")
	cmd.Flags().IntVar(&limit, "limit", 0, "Print at most this many rows.")
	cmd.Flags().BoolVar(&live, "live", false, "Re-render the result while the graph is running.")
	cmd.Flags().BoolVar(&streamOutput, "stream", false, "Print rows as soon as they reach the output instead of at the end.")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show per-node progress on stderr.")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per source chunk. Overrides the configuration.")
}

// setup reads the configuration and builds the logger, applying command line overrides.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("couldn't read config: %w", err)
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if batchSize != 0 {
		if batchSize < 0 {
			return nil, zerolog.Nop(), fmt.Errorf("batch size must be positive, got %d", batchSize)
		}
		cfg.Execution.BatchSize = batchSize
	}

	if cfg.Logging.File {
		if err := logs.InitializeFileLogger(); err != nil {
			return nil, zerolog.Nop(), fmt.Errorf("couldn't initialize file logger: %w", err)
		}
	}
	logger, err := logs.New(cfg.Logging, nil)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("couldn't initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// execute runs a built graph, printing the output reader the way the flags and configuration ask for.
func execute(ctx context.Context, service *execution.ExecutionService, reader *execution.NodeReader, cfg *config.Config) error {
	newFormat, err := formats.NewFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	if progress {
		if err := service.Observe(newProgressPrinter(os.Stderr).Observe); err != nil {
			return err
		}
	}

	if streamOutput {
		if orderBy != "" || limit > 0 {
			return fmt.Errorf("--order-by and --limit aren't supported with stream output")
		}
		sink := stream.NewOutputPrinter(reader, newFormat(os.Stdout))
		if err := service.Observe(sink.Observe); err != nil {
			return err
		}
		if err := service.Run(ctx); err != nil {
			return fmt.Errorf("couldn't run graph: %w", err)
		}
		return sink.Close()
	}

	sink := batch.NewOutputPrinter(
		reader,
		orderBy,
		descending,
		limit,
		newFormat,
		live,
		cfg.Execution.EmitSnapshots,
		os.Stdout,
	)
	if err := service.Observe(sink.Observe); err != nil {
		return err
	}
	if err := service.Run(ctx); err != nil {
		return fmt.Errorf("couldn't run graph: %w", err)
	}
	return sink.Print()
}
