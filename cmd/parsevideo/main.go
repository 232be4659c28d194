package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/config"
	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/naming"
	"github.com/Nomadcxx/parsevideo/internal/ui"
)

var (
	version = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"
	cfgFile string
	verbose bool
	noColor bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parsevideo",
		Short: "Extract series and movie metadata from video filenames",
		Long: `parsevideo reads video filenames and extracts the series name, season,
episode, disc, part, movie title, year and IMDB id they encode.

Examples:
  parsevideo parse "Series Name.1x02.Episode name.mkv"
  parsevideo parse --json --explain "Movie Name (1988).avi"
  parsevideo scan /media/tv
  parsevideo try`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				ui.DisableColors()
			}
		},
	}

	originalHelpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "parsevideo" {
			printHeader(cmd.OutOrStdout(), version)
		}
		originalHelpFunc(cmd, args)
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/parsevideo/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newRomanCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newScansCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			printHeader(cmd.OutOrStdout(), version)
		},
	}
}

// loadConfig loads --config or the default config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger for long-running commands. --verbose forces
// debug level.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg)
}

// newParser builds a parser from config. romanOverride, when non-nil, wins
// over parser.roman_numerals.
func newParser(cfg *config.Config, romanOverride *bool) *naming.Parser {
	roman := cfg.Parser.RomanNumerals
	if romanOverride != nil {
		roman = *romanOverride
	}
	return naming.New(
		naming.WithRomanNumerals(roman),
		naming.WithMatchTimeout(cfg.Parser.Timeout()),
	)
}

func openDB(cfg *config.Config) (*database.DB, error) {
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	db, err := database.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// boolFlag returns a pointer to the flag value when it was set explicitly.
func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return nil
	}
	return &v
}
