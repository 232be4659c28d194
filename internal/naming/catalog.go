package naming

import (
	"fmt"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds the time a single rule may spend backtracking
// on one input.
const DefaultMatchTimeout = 100 * time.Millisecond

// Example is an input a rule must match, together with the fields it must
// produce. Examples double as documentation and as catalog self-tests.
type Example struct {
	Input string
	Want  Metadata
}

// Rule is one ordered extraction pattern. Patterns are anchored to the whole
// core name and matched case-insensitively. Only the groups listed in Fields
// reach the output; other named groups (bracket openers used by conditionals)
// stay internal.
type Rule struct {
	Name     string
	Pattern  string
	Fields   []Field
	Examples []Example

	re *regexp2.Regexp
}

// Catalog is an ordered, immutable set of compiled rules. Order is
// precedence: the first rule that matches wins.
type Catalog struct {
	rules []*Rule
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the built-in catalog, compiling it on first use.
// The result is shared and must not be modified.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = NewCatalog(DefaultMatchTimeout, DefaultRules()...)
	})
	return defaultCatalog
}

// NewCatalog compiles rules in the given order. A rule with an empty or
// duplicate name, a pattern that does not compile, a pattern identical to an
// earlier rule, or a declared field that is unknown or missing from the
// pattern is a programming error and panics.
func NewCatalog(timeout time.Duration, rules ...Rule) *Catalog {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}

	c := &Catalog{rules: make([]*Rule, 0, len(rules))}
	names := make(map[string]bool, len(rules))
	patterns := make(map[string]string, len(rules))

	for i := range rules {
		r := rules[i]
		if r.Name == "" {
			panic(fmt.Sprintf("naming: rule %d has no name", i))
		}
		if names[r.Name] {
			panic(fmt.Sprintf("naming: duplicate rule name %q", r.Name))
		}
		if prev, ok := patterns[r.Pattern]; ok {
			panic(fmt.Sprintf("naming: rule %q repeats the pattern of rule %q", r.Name, prev))
		}
		names[r.Name] = true
		patterns[r.Pattern] = r.Name

		// Singleline lets the catch-all cover names that contain newlines.
		re, err := regexp2.Compile(r.Pattern, regexp2.IgnoreCase|regexp2.Singleline)
		if err != nil {
			panic(fmt.Sprintf("naming: rule %q does not compile: %v", r.Name, err))
		}
		re.MatchTimeout = timeout

		groups := make(map[string]bool)
		for _, g := range re.GetGroupNames() {
			groups[g] = true
		}
		for _, f := range r.Fields {
			if !IsKnownField(f) || f == FieldExtension || f == FieldDir || f == FieldDidParse {
				panic(fmt.Sprintf("naming: rule %q declares unsupported field %q", r.Name, f))
			}
			if !groups[string(f)] {
				panic(fmt.Sprintf("naming: rule %q declares field %q without a matching group", r.Name, f))
			}
		}

		r.Fields = append([]Field(nil), r.Fields...)
		r.re = re
		c.rules = append(c.rules, &r)
	}

	return c
}

// clone copies r deeply enough that callers cannot reach catalog state. The
// compiled pattern is shared; it is safe for concurrent use.
func (r *Rule) clone() Rule {
	c := *r
	c.Fields = append([]Field(nil), r.Fields...)
	c.Examples = make([]Example, len(r.Examples))
	for i, ex := range r.Examples {
		c.Examples[i] = Example{Input: ex.Input, Want: ex.Want.Clone()}
	}
	return c
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Rules returns the rules in precedence order. The returned values are
// copies; changing them does not affect the catalog.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.clone()
	}
	return out
}

// Rule looks up a rule by name.
func (c *Catalog) Rule(name string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Name == name {
			return r.clone(), true
		}
	}
	return Rule{}, false
}

// DefaultRules returns the built-in rule definitions in precedence order.
//
// The set is ordered from most to least specific: explicit disc markers,
// IMDB ids, years, compact season/episode numbers, SxE, season-only,
// episode-only and finally a catch-all that takes the whole name as a movie
// title, so every non-empty name matches something.
func DefaultRules() []Rule {
	return []Rule{
		{
			// Series Name.D01E02.Episode_name
			Name: "dvd-episode",
			Pattern: `^(?:(?<name>.*?)[/\s._-]+)?` + // optional series name and separator
				`(?:d|dvd|disc|disk)[\s._]?(?<dvd>[0-9]{1,2})` + // D01, DVD_01, disk 1
				`[x/\s._-]*` +
				`(?:e|ep|episode)[\s._]?(?<episode>[0-9]{1,2}(?:\.[0-9]{1,2})?)` + // E02, Ep02, Episode_02
				`(?:-?(?:(?:e|ep)[\s._]*)?(?<endepisode>[0-9]{1,2}))?` + // -03, E03, E.03
				`(?:[\s._]?(?:p|part)[\s._]?(?<part>[0-9]+))?` + // p4, part 4
				`(?<subepisode>[a-z])?` + // 02a
				`(?:[/\s._-]*(?<episodename>[^/]+?))?$`,
			Fields: []Field{FieldName, FieldDVD, FieldEpisode, FieldEndEpisode, FieldPart, FieldSubEpisode, FieldEpisodeName},
			Examples: []Example{
				{"D01E02.Episode_name", Metadata{FieldDVD: "01", FieldEpisode: "02", FieldEpisodeName: "Episode_name"}},
				{"Series Name.D01E02p4.Episode_name", Metadata{FieldName: "Series Name", FieldDVD: "01", FieldEpisode: "02", FieldPart: "4", FieldEpisodeName: "Episode_name"}},
				{"Series Name.DVD_01.Episode_02.Episode_name", Metadata{FieldName: "Series Name", FieldDVD: "01", FieldEpisode: "02", FieldEpisodeName: "Episode_name"}},
			},
		},
		{
			// Movie Name [1996] [imdb 1234567]
			Name: "imdb",
			Pattern: `^(?<movie>.*?)?` +
				`(?:[/\s._-]*(?<openb>\[)?(?<year>(?:19|20)[0-9]{2})(?(openb)\]))?` + // [1996]
				`(?:[/\s._-]*(?<openc>\[)?(?:(?:imdb|tt)[\s._-]*)*(?<imdb>[0-9]{7})(?(openc)\]))` + // [imdb 1234567], tt1234567
				`(?:[\s._-]*(?<title>[^/]+?))?$`,
			Fields: []Field{FieldMovie, FieldYear, FieldIMDB, FieldTitle},
			Examples: []Example{
				{"Movie Name [1996] [imdb 1234567]", Metadata{FieldMovie: "Movie Name", FieldYear: "1996", FieldIMDB: "1234567"}},
				{"tt0111161 The Shawshank Redemption", Metadata{FieldIMDB: "0111161", FieldTitle: "The Shawshank Redemption"}},
			},
		},
		{
			// Movie Name [1988], Movie Name (1988)
			Name: "year",
			Pattern: `^(?:(?<movie>.*?)[/\s._-]*)?` +
				`(?<openb>\[)?(?<openp>\()?(?<year>(?:19|20)[0-9]{2})(?(openp)\))(?(openb)\])` +
				`(?:[\s._-]*(?<title>[^/]+?))?$`,
			Fields: []Field{FieldMovie, FieldYear, FieldTitle},
			Examples: []Example{
				{"Movie Name [1988]", Metadata{FieldMovie: "Movie Name", FieldYear: "1988"}},
				{"Movie Name (1988)", Metadata{FieldMovie: "Movie Name", FieldYear: "1988"}},
				{"2001 A Space Odyssey", Metadata{FieldYear: "2001", FieldTitle: "A Space Odyssey"}},
			},
		},
		{
			// Series Name.102.Episode name
			Name: "season-episode-compact",
			Pattern: `^(?:(?<name>.*?)[/\s._-]*)?` +
				`(?<season>[0-9]{1,2}?)(?<episode>[0-9]{2})` +
				`(?:[^0-9][\s._-]*(?<episodename>.+?))?$`,
			Fields: []Field{FieldName, FieldSeason, FieldEpisode, FieldEpisodeName},
			Examples: []Example{
				{"Series Name.102.Episode name", Metadata{FieldName: "Series Name", FieldSeason: "1", FieldEpisode: "02", FieldEpisodeName: "Episode name"}},
				{"Show 1012", Metadata{FieldName: "Show", FieldSeason: "10", FieldEpisode: "12"}},
			},
		},
		{
			// Series Name.1x02.Episode name, Show [1x02-1x03]
			Name: "season-x-episode",
			Pattern: `^(?:(?<name>.*?)[/\s._-]*)?` +
				`(?<openb>\[)?(?<season>[0-9]{1,2})[x/](?<episode>[0-9]{1,2})` +
				`(?:-(?:\k<season>x)?(?<endepisode>[0-9]{1,2}))?` + // -03 or -1x03 with the same season
				`(?(openb)\])` +
				`(?:[\s._-]*(?<episodename>[^/]+?))?$`,
			Fields: []Field{FieldName, FieldSeason, FieldEpisode, FieldEndEpisode, FieldEpisodeName},
			Examples: []Example{
				{"Series Name.1x02.Episode name", Metadata{FieldName: "Series Name", FieldSeason: "1", FieldEpisode: "02", FieldEpisodeName: "Episode name"}},
				{"Show [1x02-1x03]", Metadata{FieldName: "Show", FieldSeason: "1", FieldEpisode: "02", FieldEndEpisode: "03"}},
			},
		},
		{
			// Series Name.s1.Episode name
			Name: "season-only",
			Pattern: `^(?:(?<name>.*?)[/\s._-]+)?` +
				`(?:s|se|season|series)[\s._]?(?<season>[0-9]{1,2})` +
				`(?:[/\s._-]*(?<episodename>[^/]+?))?$`,
			Fields: []Field{FieldName, FieldSeason, FieldEpisodeName},
			Examples: []Example{
				{"Series Name.s1.Episode name", Metadata{FieldName: "Series Name", FieldSeason: "1", FieldEpisodeName: "Episode name"}},
			},
		},
		{
			// Series Name.Episode 02.Episode name
			Name: "episode-only",
			Pattern: `^(?:(?<name>.*?)[/\s._-]*)?` +
				`(?:(?:e|ep|episode)[\s._]?)?(?<episode>[0-9]{1,2})` +
				`(?:-(?:e|ep)?(?<endepisode>[0-9]{1,2}))?` +
				`(?:(?:p|part)(?<part>[0-9]+))?` +
				`(?<subepisode>[a-z])?` +
				`(?:[/\s._-]*(?<episodename>[^/]+?))?$`,
			Fields: []Field{FieldName, FieldEpisode, FieldEndEpisode, FieldPart, FieldSubEpisode, FieldEpisodeName},
			Examples: []Example{
				{"Series Name.Episode 02.Episode name", Metadata{FieldName: "Series Name", FieldEpisode: "02", FieldEpisodeName: "Episode name"}},
				{"Show.E05-E06.Finale", Metadata{FieldName: "Show", FieldEpisode: "05", FieldEndEpisode: "06", FieldEpisodeName: "Finale"}},
			},
		},
		{
			Name:    "movie",
			Pattern: `^(?<movie>.*)$`,
			Fields:  []Field{FieldMovie},
			Examples: []Example{
				{"Just A Movie", Metadata{FieldMovie: "Just A Movie"}},
			},
		},
	}
}
