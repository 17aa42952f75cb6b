package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/warehouse/internal/config"
	"github.com/JonMunkholm/warehouse/internal/core"
)

type runOptions struct {
	source    string
	sourceDir string
	dryRun    bool
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one full bronze to silver refresh",
		Long: `Run cleans every registered entity in order and replaces its silver table.

Exit status is 0 when every entity loaded, 2 when at least one entity failed
and 1 when the run could not complete.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("source") {
				cfg.Pipeline.Source = opts.source
			}
			if cmd.Flags().Changed("source-dir") {
				cfg.Pipeline.SourceDir = opts.sourceDir
			}
			if err := cfg.Validate(); err != nil {
				return withCode(exitFatal, err)
			}
			return runPipeline(cmd.Context(), cfg, opts.dryRun, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "Bronze source: postgres or files (default: PIPELINE_SOURCE)")
	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", "", "Root of the bronze files (default: PIPELINE_SOURCE_DIR)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Clean into memory without writing silver tables")

	return cmd
}

func runPipeline(ctx context.Context, cfg *config.Config, dryRun bool, out io.Writer) error {
	a, err := newApp(ctx, cfg, dryRun)
	if err != nil {
		return withCode(exitFatal, err)
	}
	defer a.Close()

	if cfg.Pipeline.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.Timeout)
		defer cancel()
	}

	summary, err := a.pipeline.Run(core.ContextWithTrigger(ctx, "cli"))
	if summary != nil {
		printSummary(out, summary)
	}
	if err != nil {
		return withCode(exitFatal, fmt.Errorf("%s: %w", core.FormatUserError(err), err))
	}
	if !summary.Succeeded() {
		return withCode(exitPartial, fmt.Errorf("%d of %d entities failed", summary.ErrorCount(), len(summary.Results)))
	}
	return nil
}

// printSummary writes one line per entity and a totals line.
func printSummary(w io.Writer, s *core.RunSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ENTITY\tSTATUS\tREAD\tWRITTEN\tDURATION\tERROR\n")
	for _, r := range s.Results {
		msg := ""
		if r.Err != nil {
			msg = core.FormatUserError(r.Err) + " " + r.ErrorMessage()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Entity, r.Status, r.RowsRead, r.RowsWritten, r.Duration.Round(time.Millisecond), msg)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nrun %s: %d entities, %d failed, %d rows written in %s\n",
		s.RunID, len(s.Results), s.ErrorCount(), s.RowsWritten(), s.Duration.Round(time.Millisecond))
}
