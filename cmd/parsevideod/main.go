package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/config"
	"github.com/Nomadcxx/parsevideo/internal/daemon"
	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/naming"
	"github.com/Nomadcxx/parsevideo/internal/paths"
	"github.com/Nomadcxx/parsevideo/internal/scanner"
)

var (
	version = "dev"
	cfgFile string
	addr    string
	noAPI   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "parsevideod",
		Short: "parsevideo daemon service",
		Long: `parsevideod runs in the background watching library directories. New
video files are parsed into the database as they appear, the directories
are rescanned periodically and the parse API is served over HTTP.`,
		SilenceUsage: true,
		RunE:         runDaemon,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.Flags().StringVar(&addr, "addr", "", "API listen address (default: server.addr)")
	rootCmd.Flags().BoolVar(&noAPI, "no-api", false, "do not serve the HTTP API")

	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newUninstallCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}

	logCfg := cfg.Logging
	if logCfg.File == "" {
		if logCfg.File, err = paths.LogPath(); err != nil {
			return err
		}
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("unable to create logger: %w", err)
	}
	defer logger.Close()

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	db, err := database.OpenPath(dbPath)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer db.Close()

	lockPath, err := paths.LockPath()
	if err != nil {
		return err
	}

	parser := naming.New(
		naming.WithRomanNumerals(cfg.Parser.RomanNumerals),
		naming.WithMatchTimeout(cfg.Parser.Timeout()),
	)
	s := scanner.New(db, parser, logger, scanner.Options{
		Extensions: cfg.Scan.Extensions,
		Recursive:  cfg.Scan.Recursive,
		SkipHidden: cfg.Scan.SkipHidden,
	})

	listen := addr
	if listen == "" {
		listen = cfg.Server.Addr
	}
	if noAPI {
		listen = ""
	}

	d, err := daemon.New(s, daemon.Options{
		Roots:          cfg.Watch.Dirs,
		Recursive:      cfg.Scan.Recursive,
		RescanInterval: cfg.Watch.Interval(),
		Addr:           listen,
		LockPath:       lockPath,
		API: api.Options{
			Parser:         parser,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Version:        version,
		},
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("daemon", "parsevideod starting",
		logging.F("version", version),
		logging.F("user", paths.ActualUser()),
		logging.F("watch_dirs", cfg.Watch.Dirs),
		logging.F("db", dbPath),
		logging.F("log_file", logger.FilePath()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("%w (lock file %s)", err, lockPath)
		}
		return fmt.Errorf("service error: %w", err)
	}
	return nil
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install parsevideod as a systemd user service",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "To run parsevideod as a systemd user service:")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "1. Copy the binary:")
			fmt.Fprintln(out, "   cp parsevideod ~/.local/bin/")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "2. Create ~/.config/systemd/user/parsevideod.service:")
			fmt.Fprint(out, serviceUnit+"\n")
			fmt.Fprintln(out, "3. Enable and start:")
			fmt.Fprintln(out, "   systemctl --user daemon-reload")
			fmt.Fprintln(out, "   systemctl --user enable --now parsevideod")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "4. Check status:")
			fmt.Fprintln(out, "   systemctl --user status parsevideod")
			fmt.Fprintln(out, "   journalctl --user -u parsevideod -f")
		},
	}
}

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the parsevideod systemd user service",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "To uninstall the parsevideod service:")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "1. Stop and disable:")
			fmt.Fprintln(out, "   systemctl --user disable --now parsevideod")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "2. Remove files:")
			fmt.Fprintln(out, "   rm ~/.config/systemd/user/parsevideod.service")
			fmt.Fprintln(out, "   rm ~/.local/bin/parsevideod")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "3. Reload systemd:")
			fmt.Fprintln(out, "   systemctl --user daemon-reload")
		},
	}
}

const serviceUnit = `
   [Unit]
   Description=parsevideo library watcher
   After=network.target

   [Service]
   ExecStart=%h/.local/bin/parsevideod
   Restart=on-failure

   [Install]
   WantedBy=default.target
`
