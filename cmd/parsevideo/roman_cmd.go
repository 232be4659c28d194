package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/client"
	"github.com/Nomadcxx/parsevideo/internal/roman"
	"github.com/Nomadcxx/parsevideo/internal/ui"
)

func newRomanCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "roman <numeral...>",
		Short: "Decode roman numerals",
		Long: `Decode canonical roman numerals between I and MMMCMXCIX.

Examples:
  parsevideo roman XIV
  parsevideo roman mcmxciv iv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			tbl := ui.NewTable("NUMERAL", "VALUE")
			tbl.SetAlign(1, ui.AlignRight)

			var failed int
			for _, numeral := range args {
				value, err := decodeNumeral(cmd, server, numeral)
				if err != nil {
					ui.ErrorMsg(cmd.ErrOrStderr(), "%s: %v", numeral, err)
					failed++
					continue
				}
				tbl.AddRow(numeral, strconv.Itoa(value))
			}

			if tbl.Len() > 0 {
				fmt.Fprintln(out, tbl.Render())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d numerals invalid", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "decode on a running parsevideod")

	return cmd
}

func decodeNumeral(cmd *cobra.Command, server, numeral string) (int, error) {
	if server == "" {
		return roman.Decode(numeral)
	}
	return client.New(server).Roman(cmd.Context(), numeral)
}
