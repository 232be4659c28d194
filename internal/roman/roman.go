// Package roman decodes roman numerals found next to disc, season, episode
// and part markers in media file names ("disk_V", "Episode_XI", "Part.XXV").
package roman

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// ErrInvalid is returned by Decode for tokens that are not canonical roman
// numerals in the range 1-3999.
var ErrInvalid = errors.New("invalid roman numeral")

// canonicalRegex accepts the standard subtractive form only: no more than
// three repeats of I, X, C or M and the pairs IV IX XL XC CD CM.
var canonicalRegex = regexp.MustCompile(`^M{0,3}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)

// MarkerPattern finds a roman numeral directly after a disc/season/episode/part
// marker and one separator. The numeral must be followed by a separator, a
// slash or the end of the string.
const MarkerPattern = `(?<![a-z0-9])` +
	`(?<marker>d|dvd|disc|disk|s|se|season|e|ep|episode|p|part|day)` +
	`(?<sep>[\s._-])` +
	`(?<roman>(?=[mdclxvi])m{0,3}(?:cm|cd|d?c{0,3})(?:xc|xl|l?x{0,3})(?:ix|iv|v?i{0,3}))` +
	`(?=[/\s._-]|$)`

var markerRegex = regexp2.MustCompile(MarkerPattern, regexp2.IgnoreCase)

var symbolValues = map[rune]int{
	'M': 1000,
	'D': 500,
	'C': 100,
	'L': 50,
	'X': 10,
	'V': 5,
	'I': 1,
}

// Valid reports whether token is a canonical roman numeral between 1 and 3999.
// Case is ignored.
func Valid(token string) bool {
	if token == "" {
		return false
	}
	return canonicalRegex.MatchString(strings.ToUpper(token))
}

// Decode converts a roman numeral to its integer value.
//
// Symbols are read right to left while tracking the largest value seen so
// far: a symbol at least as large as that maximum is added, a smaller one is
// subtracted. Non-canonical input such as "IIII" or "VX" fails with ErrInvalid.
func Decode(token string) (int, error) {
	if !Valid(token) {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, token)
	}

	upper := []rune(strings.ToUpper(token))
	total, maxValue := 0, 0
	for i := len(upper) - 1; i >= 0; i-- {
		value := symbolValues[upper[i]]
		if value >= maxValue {
			total += value
			maxValue = value
		} else {
			total -= value
		}
	}
	return total, nil
}

// ReplaceMarked rewrites every marker-adjacent roman numeral in s to its
// decimal value, leaving the marker and separator untouched:
//
//	"Show.disk_V.Episode_XI" -> "Show.disk_5.Episode_11"
//
// Input that contains no marked numerals is returned unchanged.
func ReplaceMarked(s string) string {
	out, err := markerRegex.ReplaceFunc(s, func(m regexp2.Match) string {
		marker := m.GroupByName("marker").String()
		sep := m.GroupByName("sep").String()
		value, err := Decode(m.GroupByName("roman").String())
		if err != nil {
			return m.String()
		}
		return marker + sep + strconv.Itoa(value)
	}, -1, -1)
	if err != nil {
		// Only a match timeout can fail here; keep the input as it was.
		return s
	}
	return out
}
