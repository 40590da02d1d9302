package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <pipeline.yml>",
	Short: "Run a pipeline described in a yaml file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		p, err := pipeline.Read(args[0])
		if err != nil {
			return err
		}
		catalog, err := datasources.NewCatalog(logger, cfg.Tables...)
		if err != nil {
			return fmt.Errorf("couldn't create table catalog: %w", err)
		}

		service := execution.NewExecutionService(execution.WithLogger(logger))
		reader, err := p.Build(ctx, service, catalog, pipeline.Options{
			BatchSize:     cfg.Execution.BatchSize,
			EmitSnapshots: cfg.Execution.EmitSnapshots,
		})
		if err != nil {
			return err
		}
		return execute(ctx, service, reader, cfg)
	},
}

func init() {
	addOutputFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
