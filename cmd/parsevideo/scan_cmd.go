package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/scanner"
	"github.com/Nomadcxx/parsevideo/internal/ui"
)

func newScanCmd() *cobra.Command {
	var (
		noRecursive bool
		roman       bool
	)

	cmd := &cobra.Command{
		Use:   "scan [directory...]",
		Short: "Parse every video file below directories into the database",
		Long: `Walk directories, parse each video file name and store the results in
the parse history database. Records of files that no longer exist below a
scanned directory are removed.

With no arguments the configured watch directories are scanned.

Examples:
  parsevideo scan /media/tv /media/movies
  parsevideo scan --no-recursive /downloads`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			roots := args
			if len(roots) == 0 {
				roots = cfg.Watch.Dirs
			}
			if len(roots) == 0 {
				return fmt.Errorf("no directories given and watch.dirs is empty")
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			var romanOverride *bool
			if cmd.Flags().Changed("roman") {
				romanOverride = &roman
			}

			out := cmd.OutOrStdout()
			progress := ui.NewScanProgress(out, "Scanning")
			s := scanner.New(db, newParser(cfg, romanOverride), logger, scanner.Options{
				Extensions: cfg.Scan.Extensions,
				Recursive:  cfg.Scan.Recursive && !noRecursive,
				SkipHidden: cfg.Scan.SkipHidden,
				OnProgress: func(p scanner.Progress) {
					progress.Update(p.FilesSeen, p.CurrentPath)
				},
			})

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := s.Scan(ctx, roots...)
			if result != nil {
				progress.Done()
				printScanResult(cmd, result)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noRecursive, "no-recursive", false, "do not descend into subdirectories")
	cmd.Flags().BoolVar(&roman, "roman", false, "decode roman numerals after disc/season/episode markers")

	return cmd
}

func printScanResult(cmd *cobra.Command, result *scanner.Result) {
	out := cmd.OutOrStdout()

	tbl := ui.NewTable("FILES", "COUNT")
	tbl.SetAlign(1, ui.AlignRight)
	tbl.AddRow("seen", ui.FormatCount(result.FilesSeen))
	tbl.AddRow("parsed", ui.FormatCount(result.FilesParsed))
	tbl.AddRow("unparsed", ui.FormatCount(result.FilesUnparsed))
	tbl.AddRow("removed", ui.FormatCount(result.FilesRemoved))
	fmt.Fprintln(out, tbl.Render())

	for _, err := range result.Errors {
		ui.WarningMsg(cmd.ErrOrStderr(), "%v", err)
	}
	ui.SuccessMsg(out, "Scanned %d director%s in %s", len(result.Roots), plural(len(result.Roots), "y", "ies"), ui.FormatDuration(result.Duration))
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
