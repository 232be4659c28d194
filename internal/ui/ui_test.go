package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	DisableColors()
	m.Run()
}

func TestFieldRows_Order(t *testing.T) {
	rows := FieldRows(map[string]string{
		"episodename": "Pilot",
		"didParse":    "1",
		"name":        "Show",
		"extension":   "mkv",
		"season":      "1",
		"episode":     "02",
		"zeta":        "x",
	})

	assert.Equal(t, [][]string{
		{"Name", "Show"},
		{"Season", "1"},
		{"Episode", "02"},
		{"Episode Name", "Pilot"},
		{"Extension", "mkv"},
		{"Zeta", "x"},
	}, rows)
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "Disc", FieldLabel("dvd"))
	assert.Equal(t, "IMDb", FieldLabel("imdb"))
	assert.Equal(t, "End Episode", FieldLabel("endepisode"))
	assert.Equal(t, "Year", FieldLabel("year"))
	assert.Equal(t, "Movie", Title("movie"))
}

func TestTable_Render(t *testing.T) {
	tbl := NewTable("RULE", "FILES")
	tbl.SetAlign(1, AlignRight)
	tbl.AddRow("season-x-episode", "12")
	tbl.AddRow("movie")

	out := tbl.Render()
	assert.Equal(t, 2, tbl.Len())
	assert.Contains(t, out, "RULE")
	assert.Contains(t, out, "season-x-episode")
	assert.Contains(t, out, "12")

	assert.Empty(t, NewTable().Render())
}

func TestTable_ExtraCellsDropped(t *testing.T) {
	tbl := NewTable("A")
	tbl.AddRow("one", "two")
	assert.NotContains(t, tbl.Render(), "two")
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "1.5 kB", FormatBytes(1500))
	assert.Equal(t, "-", FormatTime(time.Time{}))
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, Confirm(strings.NewReader("yes\n"), &out, "Overwrite?"))
	assert.Contains(t, out.String(), "Overwrite? (y/N)")
	assert.False(t, Confirm(strings.NewReader("\n"), &out, "Overwrite?"))
	assert.False(t, Confirm(strings.NewReader(""), &out, "Overwrite?"))
}

func TestScanProgress_NonTerminal(t *testing.T) {
	var out bytes.Buffer
	p := NewScanProgress(&out, "Scanning")
	p.Update(5, "/tv/a.mkv")
	p.Update(1200, "/tv/b.mkv")
	assert.Empty(t, out.String())

	p.Done()
	assert.Equal(t, "Scanning: 1,200 files\n", out.String())
}

func TestTruncateLeft(t *testing.T) {
	assert.Equal(t, "abc", truncateLeft("abc", 5))
	assert.Equal(t, "...ef", truncateLeft("abcdef", 5))
}

func TestMessages(t *testing.T) {
	var out bytes.Buffer
	SuccessMsg(&out, "scanned %d files", 3)
	ErrorMsg(&out, "failed")
	assert.Equal(t, "✓ scanned 3 files\n✗ failed\n", out.String())
}
