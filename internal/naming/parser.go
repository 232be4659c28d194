package naming

import (
	"sync"
	"time"
)

// Parser extracts Metadata from filenames. A Parser is immutable after New
// and safe for concurrent use.
type Parser struct {
	catalog  *Catalog
	pipeline Pipeline
	roman    bool
}

// Option configures a Parser.
type Option func(*parserOptions)

type parserOptions struct {
	roman   bool
	timeout time.Duration
	catalog *Catalog
}

// WithRomanNumerals enables decoding of roman numerals that follow a disc,
// season, episode or part marker ("disc_V" parses as dvd 5). Off by default.
func WithRomanNumerals(enabled bool) Option {
	return func(o *parserOptions) {
		o.roman = enabled
	}
}

// WithMatchTimeout compiles a private copy of the default rules with the
// given per-rule match timeout. Ignored when WithCatalog is also given.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *parserOptions) {
		o.timeout = d
	}
}

// WithCatalog replaces the rule catalog.
func WithCatalog(c *Catalog) Option {
	return func(o *parserOptions) {
		o.catalog = c
	}
}

// New creates a Parser. Without options it uses DefaultCatalog and only
// strips noise tokens before matching.
func New(opts ...Option) *Parser {
	var o parserOptions
	for _, opt := range opts {
		opt(&o)
	}

	catalog := o.catalog
	if catalog == nil {
		if o.timeout > 0 && o.timeout != DefaultMatchTimeout {
			catalog = NewCatalog(o.timeout, DefaultRules()...)
		} else {
			catalog = DefaultCatalog()
		}
	}

	pipeline := Pipeline{StripNoiseTokens}
	if o.roman {
		pipeline = append(pipeline, DecodeRomanNumerals)
	}

	return &Parser{
		catalog:  catalog,
		pipeline: pipeline,
		roman:    o.roman,
	}
}

// Catalog returns the rules the parser matches against.
func (p *Parser) Catalog() *Catalog {
	return p.catalog
}

// RomanNumerals reports whether roman numeral decoding is enabled.
func (p *Parser) RomanNumerals() bool {
	return p.roman
}

// Result is the outcome of Explain.
type Result struct {
	Metadata Metadata
	// Rule is the name of the winning rule, empty when nothing matched.
	Rule string
	// Core is the normalised name the rules were matched against.
	Core string
}

// Parse extracts metadata from filename. The result always carries the
// extension and directory when the filename has them, and didParse="1"
// when a rule matched. An empty filename yields an empty Metadata.
func (p *Parser) Parse(filename string) Metadata {
	return p.Explain(filename).Metadata
}

// Explain is Parse that also reports which rule won and the text it saw.
func (p *Parser) Explain(filename string) Result {
	md := make(Metadata)
	if filename == "" {
		return Result{Metadata: md}
	}

	core, ext, dir := splitPath(filename)
	if ext != "" {
		md[FieldExtension] = ext
	}
	if dir != "" {
		md[FieldDir] = dir
	}

	core = p.pipeline.Apply(core)
	res := Result{Metadata: md, Core: core}

	fields, rule := p.catalog.Match(core)
	if rule == nil {
		return res
	}
	for f, v := range fields {
		md[f] = v
	}
	md[FieldDidParse] = parsedMarker
	res.Rule = rule.Name
	return res
}

var (
	defaultParser     *Parser
	defaultParserOnce sync.Once
)

// Parse extracts metadata from filename with the default parser.
func Parse(filename string) Metadata {
	defaultParserOnce.Do(func() {
		defaultParser = New()
	})
	return defaultParser.Parse(filename)
}
