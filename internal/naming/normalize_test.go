package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		input string
		core  string
		ext   string
		dir   string
	}{
		{"movie.avi", "movie", "avi", ""},
		{"Series Name/D01E02.Episode_name.avi", "Series Name/D01E02.Episode_name", "avi", "Series Name"},
		{"a/b/c.mkv", "a/b/c", "mkv", "a/b"},
		{"/c.mkv", "/c", "mkv", "/"},
		{"noext", "noext", "", ""},
		{".hidden", ".hidden", "", ""},
		{"dir/.hidden", "dir/.hidden", "", "dir"},
		{"trailing.", "trailing.", "", ""},
		{"dir.v2/file", "dir.v2/file", "", "dir.v2"},
		{"dir/", "dir/", "", "dir"},
		{"archive.tar.gz", "archive.tar", "gz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			core, ext, dir := splitPath(tt.input)
			assert.Equal(t, tt.core, core, "core")
			assert.Equal(t, tt.ext, ext, "ext")
			assert.Equal(t, tt.dir, dir, "dir")
		})
	}
}

func TestStripNoiseTokens(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Movie.1080p.x264", "Movie.."},
		{"Show.720p.E05", "Show..E05"},
		{"Clip 2160p480p", "Clip "},
		{"x263x265", ""},
		// case-sensitive
		{"Movie.1080P.X264", "Movie.1080P.X264"},
		// no word boundaries
		{"abc720pdef", "abcdef"},
		{"nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, StripNoiseTokens(tt.input))
		})
	}
}

func TestNoiseTokens_ReturnsCopy(t *testing.T) {
	tokens := NoiseTokens()
	assert.Len(t, tokens, 7)
	tokens[0] = "changed"
	assert.Equal(t, "480p", NoiseTokens()[0])
}

func TestPipeline_Order(t *testing.T) {
	p := Pipeline{
		func(s string) string { return s + "a" },
		func(s string) string { return s + "b" },
		strings.ToUpper,
	}
	assert.Equal(t, "XAB", p.Apply("x"))
	assert.Equal(t, "x", Pipeline(nil).Apply("x"))
}

func TestDecodeRomanNumerals_AfterNoiseStripping(t *testing.T) {
	p := Pipeline{StripNoiseTokens, DecodeRomanNumerals}
	assert.Equal(t, "Show.Episode_11", p.Apply("Show.Episode_XI720p"))
	assert.Equal(t, "Show.Episode_XI720p", DecodeRomanNumerals("Show.Episode_XI720p"))
}
