package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hydrokit/negflo/pkg/pipeline"
)

// runAllCommand creates the run-all command.
func (c *CLI) runAllCommand() *cobra.Command {
	var (
		in     inputFlags
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "run-all [residual.csv]",
		Short: "Smooth with every mode and write a run log",
		Long: `Smooth with every mode and write a run log.

Writes <prefix>.rw1, <prefix>.cl1, <prefix>.sm1 ... <prefix>.sm7 and a JSON
run log at <prefix>.log recording each mode's report and leftover volume.
Segmented smoothing (sm6) is not implemented and is skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			residual := ""
			if len(args) == 1 {
				residual = args[0]
			}
			opts, err := in.options(cmd, residual, c.Logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("prefix") || opts.Output == "" {
				opts.Output = prefix
			}
			return c.runAll(cmd.Context(), opts, in.noCache)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&prefix, "prefix", "p", pipeline.DefaultPrefix, "output path prefix")

	return cmd
}

func (c *CLI) runAll(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Running every mode...")
	spinner.Start()

	result, err := runner.RunAll(ctx, opts)
	if result == nil {
		spinner.StopWithError("Run failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Ran %d modes", len(result.Outputs)))

	printResult(result, c.Logger)
	printFile(opts.Output+".log", false)
	return err
}
