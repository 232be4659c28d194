package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/Nomadcxx/parsevideo/internal/naming"
)

// palette holds one style per role. Without a terminal every style is plain.
type palette struct {
	success, failure, warning, info, dim lipgloss.Style
	movie, episode, path, label          lipgloss.Style
}

var styles palette

func init() {
	initStyles()
}

func initStyles() {
	styles = newPalette(IsTerminal())
}

func newPalette(color bool) palette {
	if !color {
		plain := lipgloss.NewStyle()
		return palette{plain, plain, plain, plain, plain, plain, plain, plain, plain}
	}

	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return palette{
		success: fg("10").Bold(true),
		failure: fg("9").Bold(true),
		warning: fg("11"),
		info:    fg("12"),
		dim:     fg("8"),
		movie:   fg("4"),
		episode: fg("5"),
		path:    fg("15"),
		label:   fg("12").Bold(true),
	}
}

func Success(text string) string { return styles.success.Render(text) }
func Error(text string) string   { return styles.failure.Render(text) }
func Warning(text string) string { return styles.warning.Render(text) }
func Info(text string) string    { return styles.info.Render(text) }
func Dim(text string) string     { return styles.dim.Render(text) }
func Path(text string) string    { return styles.path.Render(text) }
func Label(text string) string   { return styles.label.Render(text) }

// Kind colours text by media kind name as reported by naming.MediaKind.
func Kind(kind, text string) string {
	switch kind {
	case naming.KindEpisode.String():
		return styles.episode.Render(text)
	case naming.KindMovie.String():
		return styles.movie.Render(text)
	default:
		return styles.dim.Render(text)
	}
}

func message(w io.Writer, marker, format string, args []interface{}) {
	fmt.Fprintf(w, "%s %s\n", marker, fmt.Sprintf(format, args...))
}

// SuccessMsg writes a line prefixed with a check mark.
func SuccessMsg(w io.Writer, format string, args ...interface{}) {
	message(w, Success("✓"), format, args)
}

func ErrorMsg(w io.Writer, format string, args ...interface{}) {
	message(w, Error("✗"), format, args)
}

func WarningMsg(w io.Writer, format string, args ...interface{}) {
	message(w, Warning("⚠"), format, args)
}

func InfoMsg(w io.Writer, format string, args ...interface{}) {
	message(w, Info("ℹ"), format, args)
}
