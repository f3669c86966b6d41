package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hydrokit/negflo/pkg/pipeline"
)

// smoothCommand creates the smooth command.
func (c *CLI) smoothCommand() *cobra.Command {
	var (
		in          inputFlags
		modes       []string
		output      string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "smooth [residual.csv]",
		Short: "Remove negative flow from a residual series",
		Long: `Remove negative flow from a residual series.

The residual is either given as a CSV file or computed from --observed and
--modelled series (observed minus modelled, aligned on dates). Every column
is smoothed independently. Negative runs are zeroed and their volume is
taken from neighbouring flows at or above --flow-limit.

With one mode the result is written to --output (default: <name>.<mode>);
with several modes --output is a prefix and each mode gets its extension.

Results are cached locally for faster subsequent runs.`,
		Example: `  negflo smooth residual.csv -m sm2 -l 0.5
  negflo smooth --observed gauged.csv --modelled model.csv -m sm4,sm5 -o out/res
  negflo smooth -c run.toml --strict`,
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
			if cmd.Flags().Changed("mode") || len(opts.Modes) == 0 {
				if opts.Modes, err = parseModes(modes); err != nil {
					return err
				}
			}
			if interactive {
				picked, err := pickModes(opts.Modes)
				if err != nil {
					return err
				}
				if picked == nil {
					printInfo("No modes selected")
					return nil
				}
				opts.Modes = picked
			}
			if cmd.Flags().Changed("output") {
				opts.Output = output
			}
			return c.runSmooth(cmd.Context(), opts, in.noCache)
		},
	}

	in.register(cmd)
	cmd.Flags().StringSliceVarP(&modes, "mode", "m", []string{pipeline.DefaultMode.String()}, "smoothing mode(s), by name or number (see 'negflo modes')")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (one mode) or prefix (several modes)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick modes interactively")

	return cmd
}

// runSmooth executes the pipeline and prints the artifacts.
func (c *CLI) runSmooth(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Smoothing...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if result == nil {
		spinner.StopWithError("Smoothing failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Smoothed %d columns", result.Stats.Columns))

	printResult(result, c.Logger)
	if err != nil {
		return err
	}
	if len(result.Outputs) == 1 {
		printNewline()
		printNextStep("Compare every mode", "negflo run-all "+describeInput(opts))
	}
	return nil
}

// printResult prints the written artifacts and any leftover negative flow.
func printResult(result *pipeline.Result, logger *log.Logger) {
	modes := make([]string, len(result.Outputs))
	for i, out := range result.Outputs {
		modes[i] = out.Mode.String()
	}
	printSuccess("Smoothed %s with %s", result.Residual.Name, strings.Join(modes, ", "))
	printRunStats(result.Stats)
	for _, out := range result.Outputs {
		printFile(out.Path, out.CacheHit)
	}

	unresolved := result.Unresolved()
	if len(unresolved) == 0 {
		return
	}
	printNewline()
	printWarning("Negative flow remains in %d of %d outputs", len(unresolved), len(result.Outputs))
	fmt.Println(renderOverflowTable(unresolved))
	logger.Debug("run finished with leftover volume", "run_id", result.RunID)
}

func describeInput(opts pipeline.Options) string {
	if opts.Residual != "" {
		return opts.Residual
	}
	return fmt.Sprintf("--observed %s --modelled %s", opts.Observed, opts.Modelled)
}
