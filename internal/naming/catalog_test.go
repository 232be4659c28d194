package naming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_Order(t *testing.T) {
	var names []string
	for _, r := range DefaultCatalog().Rules() {
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{
		"dvd-episode",
		"imdb",
		"year",
		"season-episode-compact",
		"season-x-episode",
		"season-only",
		"episode-only",
		"movie",
	}, names)
}

func TestDefaultCatalog_Shared(t *testing.T) {
	assert.Same(t, DefaultCatalog(), DefaultCatalog())
}

func TestDefaultCatalog_NoDuplicatePatterns(t *testing.T) {
	seen := make(map[string]string)
	for _, r := range DefaultCatalog().Rules() {
		prev, dup := seen[r.Pattern]
		assert.False(t, dup, "rule %q repeats the pattern of %q", r.Name, prev)
		seen[r.Pattern] = r.Name
	}
}

// Every example carried by a rule must be matched by that rule, produce
// exactly the listed fields, and not be claimed by an earlier rule.
func TestDefaultCatalog_Examples(t *testing.T) {
	rules := DefaultCatalog().Rules()

	for i, r := range rules {
		require.NotEmpty(t, r.Examples, "rule %q has no examples", r.Name)

		for _, ex := range r.Examples {
			t.Run(r.Name+"/"+ex.Input, func(t *testing.T) {
				got, ok := r.Match(ex.Input)
				require.True(t, ok, "rule does not match its own example")
				assert.Equal(t, ex.Want, got)

				for _, earlier := range rules[:i] {
					_, shadowed := earlier.Match(ex.Input)
					assert.False(t, shadowed, "example is shadowed by earlier rule %q", earlier.Name)
				}

				md, winner := DefaultCatalog().Match(ex.Input)
				require.NotNil(t, winner)
				assert.Equal(t, r.Name, winner.Name)
				assert.Equal(t, ex.Want, md)
			})
		}
	}
}

func TestDefaultCatalog_DeclaredFields(t *testing.T) {
	for _, r := range DefaultCatalog().Rules() {
		for _, f := range r.Fields {
			assert.True(t, IsKnownField(f), "rule %q declares %q", r.Name, f)
			assert.NotContains(t, []Field{FieldExtension, FieldDir, FieldDidParse}, f)
		}
	}
}

func TestCatalog_RulesReturnsCopies(t *testing.T) {
	rules := DefaultCatalog().Rules()
	rules[0].Name = "changed"
	rules[0].Fields[0] = FieldMovie

	first := DefaultCatalog().Rules()[0]
	assert.Equal(t, "dvd-episode", first.Name)
	assert.Equal(t, FieldName, first.Fields[0])
}

func TestCatalog_Lookup(t *testing.T) {
	r, ok := DefaultCatalog().Rule("imdb")
	require.True(t, ok)
	assert.Equal(t, "imdb", r.Name)

	_, ok = DefaultCatalog().Rule("nope")
	assert.False(t, ok)
}

func TestNewCatalog_Panics(t *testing.T) {
	valid := Rule{Name: "movie", Pattern: `^(?<movie>.*)$`, Fields: []Field{FieldMovie}}

	tests := []struct {
		name  string
		rules []Rule
	}{
		{
			name:  "missing name",
			rules: []Rule{{Pattern: `^(?<movie>.*)$`, Fields: []Field{FieldMovie}}},
		},
		{
			name:  "duplicate name",
			rules: []Rule{valid, {Name: "movie", Pattern: `^(?<movie>.+)$`, Fields: []Field{FieldMovie}}},
		},
		{
			name:  "duplicate pattern",
			rules: []Rule{valid, {Name: "movie-again", Pattern: valid.Pattern, Fields: []Field{FieldMovie}}},
		},
		{
			name:  "bad pattern",
			rules: []Rule{{Name: "broken", Pattern: `^(?<movie>.*$`, Fields: []Field{FieldMovie}}},
		},
		{
			name:  "unknown field",
			rules: []Rule{{Name: "odd", Pattern: `^(?<rating>.*)$`, Fields: []Field{"rating"}}},
		},
		{
			name:  "meta field",
			rules: []Rule{{Name: "meta", Pattern: `^(?<extension>.*)$`, Fields: []Field{FieldExtension}}},
		},
		{
			name:  "field without group",
			rules: []Rule{{Name: "nogroup", Pattern: `^(?<movie>.*)$`, Fields: []Field{FieldMovie, FieldYear}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { NewCatalog(time.Second, tt.rules...) })
		})
	}
}

func TestRule_MatchTimeoutIsNoMatch(t *testing.T) {
	c := NewCatalog(time.Millisecond, Rule{
		Name:    "catastrophic",
		Pattern: `^(?<movie>(a+)+)b$`,
		Fields:  []Field{FieldMovie},
	})
	r := c.rules[0]

	input := ""
	for i := 0; i < 40; i++ {
		input += "a"
	}

	md, ok := r.Match(input)
	assert.False(t, ok)
	assert.Nil(t, md)
}

func TestRule_MatchUncompiled(t *testing.T) {
	var r Rule
	_, ok := r.Match("anything")
	assert.False(t, ok)
}
