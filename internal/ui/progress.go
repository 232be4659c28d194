package ui

import (
	"fmt"
	"io"
	"strings"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ScanProgress prints a single self-overwriting status line for a scan whose
// total is not known up front. On a non-terminal it prints nothing until
// Done.
type ScanProgress struct {
	w     io.Writer
	label string
	index int
	width int
	count int
}

func NewScanProgress(w io.Writer, label string) *ScanProgress {
	return &ScanProgress{w: w, label: label}
}

// Update redraws the line with the number of files seen and the current path.
func (p *ScanProgress) Update(count int, current string) {
	p.count = count
	if !IsTerminal() {
		return
	}

	line := fmt.Sprintf("%s %s %s files %s",
		spinnerChars[p.index], p.label, FormatCount(count), Dim(truncateLeft(current, 50)))
	p.index = (p.index + 1) % len(spinnerChars)

	pad := ""
	if n := len(line); n < p.width {
		pad = strings.Repeat(" ", p.width-n)
	}
	p.width = len(line)
	fmt.Fprint(p.w, "\r"+line+pad)
}

// Done clears the status line and prints the final count.
func (p *ScanProgress) Done() {
	if IsTerminal() && p.width > 0 {
		fmt.Fprint(p.w, "\r"+strings.Repeat(" ", p.width)+"\r")
	}
	fmt.Fprintf(p.w, "%s: %s files\n", p.label, FormatCount(p.count))
}

// truncateLeft keeps the end of s, which for paths is the useful part.
func truncateLeft(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[len(r)-maxLen:])
	}
	return "..." + string(r[len(r)-maxLen+3:])
}
