package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/graph"
	"github.com/chunkflow/chunkflow/pipeline"
)

var printDot bool

var explainCmd = &cobra.Command{
	Use:   "explain <pipeline.yml>",
	Short: "Render the graph of a pipeline with graphviz.",
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
		if _, err := p.Build(ctx, service, catalog, pipeline.Options{
			BatchSize:     cfg.Execution.BatchSize,
			EmitSnapshots: cfg.Execution.EmitSnapshots,
		}); err != nil {
			return err
		}

		dot, err := graph.Explain(service)
		if err != nil {
			return fmt.Errorf("couldn't describe graph: %w", err)
		}
		if printDot {
			_, err := fmt.Fprintln(os.Stdout, dot)
			return err
		}

		file, err := os.CreateTemp(os.TempDir(), "chunkflow-explain-*.png")
		if err != nil {
			return fmt.Errorf("couldn't create temporary file: %w", err)
		}
		render := exec.CommandContext(ctx, "dot", "-Tpng")
		render.Stdin = strings.NewReader(dot)
		render.Stdout = file
		render.Stderr = os.Stderr
		if err := render.Run(); err != nil {
			file.Close()
			return fmt.Errorf("couldn't render graph: %w", err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("couldn't close temporary file: %w", err)
		}
		if err := open.Start(file.Name()); err != nil {
			return fmt.Errorf("couldn't open graph: %w", err)
		}
		return nil
	},
}

func init() {
	explainCmd.Flags().BoolVar(&printDot, "dot", false, "Print the graph in dot format instead of rendering it.")
	rootCmd.AddCommand(explainCmd)
}
