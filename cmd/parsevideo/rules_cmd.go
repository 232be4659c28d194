package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/client"
	"github.com/Nomadcxx/parsevideo/internal/ui"
)

func newRulesCmd() *cobra.Command {
	var (
		asJSON   bool
		examples bool
		patterns bool
		server   string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the filename rules in precedence order",
		Long: `List the filename rules in the order they are tried. The first rule
that matches a name wins.

Examples:
  parsevideo rules
  parsevideo rules --examples
  parsevideo rules --patterns --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(cmd.Context(), server)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if !patterns {
					for i := range rules {
						rules[i].Pattern = ""
					}
				}
				return printJSON(out, rules)
			}

			tbl := ui.NewTable("#", "RULE", "FIELDS", "EXAMPLES")
			tbl.SetAlign(0, ui.AlignRight).SetAlign(3, ui.AlignRight)
			for i, r := range rules {
				tbl.AddRow(strconv.Itoa(i+1), r.Name, strings.Join(r.Fields, ", "), strconv.Itoa(len(r.Examples)))
			}
			fmt.Fprintln(out, tbl.Render())

			for _, r := range rules {
				if !examples && !patterns {
					break
				}
				ui.Section(out, r.Name)
				if patterns {
					fmt.Fprintf(out, "%s %s\n", ui.Label("pattern:"), r.Pattern)
				}
				if examples {
					for _, ex := range r.Examples {
						fmt.Fprintf(out, "  %s\n", ui.Path(ex.Input))
						for _, row := range ui.FieldRows(ex.Want) {
							fmt.Fprintf(out, "    %-14s %s\n", row[0]+":", row[1])
						}
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print rules as JSON")
	cmd.Flags().BoolVar(&examples, "examples", false, "show each rule's examples")
	cmd.Flags().BoolVar(&patterns, "patterns", false, "show each rule's regular expression")
	cmd.Flags().StringVar(&server, "server", "", "list the rules of a running parsevideod")

	return cmd
}

func loadRules(ctx context.Context, server string) ([]api.RuleInfo, error) {
	if server != "" {
		if ctx == nil {
			ctx = context.Background()
		}
		rules, err := client.New(server).Rules(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch rules: %w", err)
		}
		return rules, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rules := newParser(cfg, nil).Catalog().Rules()
	out := make([]api.RuleInfo, len(rules))
	for i, r := range rules {
		out[i] = api.NewRuleInfo(r)
	}
	return out, nil
}
