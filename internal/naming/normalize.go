package naming

import (
	"strings"

	"github.com/Nomadcxx/parsevideo/internal/roman"
)

// noiseTokens are removed from the core name before matching. Resolution
// tags add digit runs that the season/episode rules would capture, and codec
// tags add an "x" that looks like the SxE delimiter.
var noiseTokens = []string{
	"480p",
	"720p",
	"1080p",
	"2160p",
	"x263",
	"x264",
	"x265",
}

// NoiseTokens returns the substrings removed by StripNoiseTokens.
func NoiseTokens() []string {
	out := make([]string, len(noiseTokens))
	copy(out, noiseTokens)
	return out
}

// Pass is one string-to-string normalisation step.
type Pass func(string) string

// Pipeline applies its passes in order.
type Pipeline []Pass

// Apply runs every pass over s.
func (p Pipeline) Apply(s string) string {
	for _, pass := range p {
		s = pass(s)
	}
	return s
}

// StripNoiseTokens deletes every occurrence of the noise tokens. Matching is
// case-sensitive and ignores word boundaries.
func StripNoiseTokens(s string) string {
	for _, tok := range noiseTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	return s
}

// DecodeRomanNumerals replaces roman numerals that follow a disc, season,
// episode or part marker with their decimal value.
func DecodeRomanNumerals(s string) string {
	return roman.ReplaceMarked(s)
}

// splitPath separates a filename into the core name used for matching, the
// extension and the directory. The directory stays in the core name because
// some collections use slashes as delimiters ("Series Name/D01E02.avi").
// Paths always use forward slashes.
func splitPath(filename string) (core, ext, dir string) {
	core = filename

	base := filename
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		base = filename[i+1:]
		if i == 0 {
			dir = "/"
		} else {
			dir = filename[:i]
		}
	}

	if i := strings.LastIndex(base, "."); i > 0 && i < len(base)-1 {
		ext = base[i+1:]
		core = strings.TrimSuffix(filename, "."+ext)
	}

	return core, ext, dir
}
