package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/naming"
	"github.com/Nomadcxx/parsevideo/internal/ui"
)

var (
	tryTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	tryPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7"))
	tryHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

func newTryCmd() *cobra.Command {
	var roman bool

	cmd := &cobra.Command{
		Use:   "try",
		Short: "Interactively parse filenames as you type",
		Long: `Open an interactive prompt that re-parses the filename on every keystroke
and shows the extracted fields, the winning rule and the normalised name.

Keys:
  ctrl+r    toggle roman numeral decoding
  esc       quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			enabled := cfg.Parser.RomanNumerals
			if cmd.Flags().Changed("roman") {
				enabled = roman
			}

			base := newParser(cfg, nil)
			m := newTryModel(base.Catalog(), enabled)

			p := tea.NewProgram(m, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&roman, "roman", false, "start with roman numeral decoding on")

	return cmd
}

// tryModel is the bubbletea model behind the try command.
type tryModel struct {
	input   textinput.Model
	plain   *naming.Parser
	roman   *naming.Parser
	romanOn bool
	result  api.ParseResult
	width   int
}

func newTryModel(catalog *naming.Catalog, romanOn bool) tryModel {
	ti := textinput.New()
	ti.Placeholder = "e.g., Series Name.1x02.Episode name.mkv"
	ti.Width = 60
	ti.CharLimit = 500
	ti.PromptStyle = tryPromptStyle
	ti.Focus()

	m := tryModel{
		input:   ti,
		plain:   naming.New(naming.WithCatalog(catalog)),
		roman:   naming.New(naming.WithCatalog(catalog), naming.WithRomanNumerals(true)),
		romanOn: romanOn,
	}
	m.reparse()
	return m
}

func (m tryModel) parser() *naming.Parser {
	if m.romanOn {
		return m.roman
	}
	return m.plain
}

func (m *tryModel) reparse() {
	name := strings.TrimSpace(m.input.Value())
	m.result = api.NewParseResult(name, m.parser().Explain(name))
}

func (m tryModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m tryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 10 {
			m.input.Width = msg.Width - 10
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r":
			m.romanOn = !m.romanOn
			m.reparse()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.reparse()
	}
	return m, cmd
}

func (m tryModel) View() string {
	var b strings.Builder

	b.WriteString(tryTitleStyle.Render("parsevideo try"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.result.Filename != "" {
		kind := ui.Kind(m.result.Kind, ui.Title(m.result.Kind))
		rule := m.result.Rule
		if rule == "" {
			rule = "-"
		}
		fmt.Fprintf(&b, "%s  %s %s\n", kind, ui.Label("rule:"), rule)
		fmt.Fprintf(&b, "%s %q\n\n", ui.Label("core:"), m.result.Core)

		if rows := ui.FieldRows(m.result.Fields); len(rows) > 0 {
			tbl := ui.NewTable("FIELD", "VALUE")
			for _, row := range rows {
				tbl.AddRow(row...)
			}
			b.WriteString(tbl.Render())
			b.WriteString("\n")
		}
	}

	roman := "off"
	if m.romanOn {
		roman = "on"
	}
	b.WriteString("\n")
	b.WriteString(tryHelpStyle.Render(fmt.Sprintf("roman numerals: %s  •  ctrl+r toggle  •  esc quit", roman)))
	b.WriteString("\n")

	return b.String()
}
