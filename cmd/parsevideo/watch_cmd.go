package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/daemon"
	"github.com/Nomadcxx/parsevideo/internal/scanner"
)

func newWatchCmd() *cobra.Command {
	var (
		rescan      time.Duration
		noRecursive bool
	)

	cmd := &cobra.Command{
		Use:   "watch [directory...]",
		Short: "Watch directories and parse new video files as they appear",
		Long: `Watch directories in the foreground. New, changed and renamed video files
are parsed into the database; deleted files are removed from it.

With no arguments the configured watch directories are used.

Examples:
  parsevideo watch /downloads
  parsevideo watch --rescan 1h /media/tv /media/movies`,
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

			recursive := cfg.Scan.Recursive && !noRecursive
			s := scanner.New(db, newParser(cfg, nil), logger, scanner.Options{
				Extensions: cfg.Scan.Extensions,
				Recursive:  recursive,
				SkipHidden: cfg.Scan.SkipHidden,
			})

			d, err := daemon.New(s, daemon.Options{
				Roots:          roots,
				Recursive:      recursive,
				RescanInterval: rescan,
			}, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range roots {
				fmt.Fprintf(out, "Watching: %s\n", r)
			}
			fmt.Fprintln(out, "\nPress Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return d.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&rescan, "rescan", 0, "also rescan every interval (0 disables)")
	cmd.Flags().BoolVar(&noRecursive, "no-recursive", false, "do not watch subdirectories")

	return cmd
}
