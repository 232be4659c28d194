package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/client"
)

func newParseCmd() *cobra.Command {
	var (
		asJSON  bool
		explain bool
		compact bool
		server  string
	)

	cmd := &cobra.Command{
		Use:   "parse [filename...]",
		Short: "Parse video filenames",
		Long: `Parse one or more video filenames and print the extracted metadata.

With no arguments, filenames are read from stdin one per line.

Examples:
  parsevideo parse "Series Name.D01E02.Episode_name.avi"
  parsevideo parse --roman "Series Name.disc_V.Episode_XI.avi"
  parsevideo parse --json --explain "tt0111161 The Shawshank Redemption.mkv"
  ls /media/tv | parsevideo parse --compact
  parsevideo parse --server 127.0.0.1:8687 "Movie Name (1988).mkv"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				var err error
				names, err = readNames(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			roman := boolFlag(cmd, "roman")
			results, err := parseNames(cmd.Context(), names, roman, server)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON && len(results) == 1 && len(args) == 1:
				return printJSON(out, results[0])
			case asJSON:
				return printJSON(out, results)
			case compact:
				for _, res := range results {
					printCompact(out, res)
				}
			default:
				for _, res := range results {
					printResult(out, res, explain)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the matching rule and normalised name")
	cmd.Flags().BoolVar(&compact, "compact", false, "print one tab-separated line per file")
	cmd.Flags().Bool("roman", false, "decode roman numerals after disc/season/episode markers")
	cmd.Flags().StringVar(&server, "server", "", "parse on a running parsevideod at this address")

	return cmd
}

// parseNames parses locally, or through the API when server is set.
func parseNames(ctx context.Context, names []string, roman *bool, server string) ([]api.ParseResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if server != "" {
		results, err := client.New(server).ParseBatch(ctx, names, roman)
		if err != nil {
			return nil, fmt.Errorf("server parse failed: %w", err)
		}
		return results, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	parser := newParser(cfg, roman)

	results := make([]api.ParseResult, len(names))
	for i, name := range names {
		results[i] = api.NewParseResult(name, parser.Explain(name))
	}
	return results, nil
}

// readNames reads one filename per line. Blank lines are skipped. It refuses
// to wait on an interactive terminal.
func readNames(in io.Reader) ([]string, error) {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return nil, errors.New("no filenames given (pass them as arguments or on stdin)")
	}

	var names []string
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("no filenames given")
	}
	return names, nil
}
