package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/config"
	"github.com/Nomadcxx/parsevideo/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage parsevideo configuration",
		Long: `Commands for managing parsevideo configuration.

The config file is stored at: ~/.config/parsevideo/config.toml
Every key can be overridden with a PARSEVIDEO_<SECTION>_<KEY> environment
variable, e.g. PARSEVIDEO_PARSER_ROMAN_NUMERALS=true.

Examples:
  parsevideo config init              # Create default config file
  parsevideo config show              # Display current configuration
  parsevideo config path              # Show config file path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

// configFilePath returns --config or the default path.
func configFilePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.ConfigPath()
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			if config.Exists(path) && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			if err := config.DefaultConfig().Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			out := cmd.OutOrStdout()
			ui.SuccessMsg(out, "Created config file: %s", path)
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  1. Add your library directories under [watch] dirs")
			fmt.Fprintln(out, "  2. Run 'parsevideo scan' to build the database")
			fmt.Fprintln(out, "  3. Run 'parsevideod' to keep it up to date")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after defaults and environment overrides
are applied, in config file syntax.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			text, err := cfg.ToTOML()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := path
			if !config.Exists(path) {
				source += " (not found, showing defaults)"
			}
			fmt.Fprintf(out, "%s %s\n\n", ui.Label("Config file:"), source)
			fmt.Fprint(out, text)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
