package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/tpch"
)

var tpchDataDir string

var tpchCmd = &cobra.Command{
	Use:   "tpch <" + strings.Join(tpch.QueryNames(), "|") + ">",
	Short: "Run one of the built-in TPC-H style queries over .tbl files.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		query, ok := tpch.Queries[strings.ToLower(args[0])]
		if !ok {
			return fmt.Errorf("unknown query %s, expected one of %s", args[0], strings.Join(tpch.QueryNames(), ", "))
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		catalog, err := datasources.NewCatalog(logger, tpch.TableInputs(tpchDataDir)...)
		if err != nil {
			return fmt.Errorf("couldn't create table catalog: %w", err)
		}

		service := execution.NewExecutionService(execution.WithLogger(logger))
		reader, err := query(ctx, service, catalog, cfg.Execution.BatchSize)
		if err != nil {
			return fmt.Errorf("couldn't build query %s: %w", args[0], err)
		}
		return execute(ctx, service, reader, cfg)
	},
}

func init() {
	tpchCmd.Flags().StringVar(&tpchDataDir, "data", ".", "Directory holding the <table>.tbl files.")
	addOutputFlags(tpchCmd)
	rootCmd.AddCommand(tpchCmd)
}
