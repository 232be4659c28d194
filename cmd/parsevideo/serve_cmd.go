package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/daemon"
)

func newServeCmd() *cobra.Command {
	var (
		addr string
		noDB bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server in the foreground. Unlike parsevideod it does
not watch directories.

Examples:
  parsevideo serve                      # listen on server.addr
  parsevideo serve --addr :9000
  parsevideo serve --no-db              # parsing only, no history routes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			apiOpts := api.Options{
				Parser:         newParser(cfg, nil),
				Logger:         logger,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Version:        version,
			}
			if !noDB {
				db, err := openDB(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				apiOpts.DB = db
			}

			d, err := daemon.New(nil, daemon.Options{Addr: addr, API: apiOpts}, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Starting parsevideo API server on %s\n", addr)
			fmt.Fprintln(out, "Endpoints:")
			fmt.Fprintln(out, "  GET  /api/v1/health            - Health check")
			fmt.Fprintln(out, "  GET  /api/v1/parse?filename=   - Parse one filename")
			fmt.Fprintln(out, "  POST /api/v1/parse             - Parse a batch of filenames")
			fmt.Fprintln(out, "  GET  /api/v1/rules             - List rules")
			fmt.Fprintln(out, "  GET  /api/v1/roman/{numeral}   - Decode a roman numeral")
			fmt.Fprintln(out, "  GET  /api/v1/files             - Stored parse results")
			fmt.Fprintln(out, "  GET  /api/v1/scans             - Recent scans")

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return d.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default: server.addr)")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "serve without the parse history database")

	return cmd
}
