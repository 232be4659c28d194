package naming

// Match runs the rule against a core name. Only declared fields that took
// part in the match with a non-empty value are returned. A rule that exceeds
// its match timeout is treated as not matching.
func (r *Rule) Match(text string) (Metadata, bool) {
	if r.re == nil {
		return nil, false
	}

	m, err := r.re.FindStringMatch(text)
	if err != nil || m == nil {
		return nil, false
	}

	out := make(Metadata, len(r.Fields))
	for _, f := range r.Fields {
		g := m.GroupByName(string(f))
		if g == nil || len(g.Captures) == 0 || g.Length == 0 {
			continue
		}
		out[f] = g.String()
	}
	return out, true
}

// Match returns the fields of the first rule that matches text, together
// with that rule. It returns nil, nil when no rule matches.
func (c *Catalog) Match(text string) (Metadata, *Rule) {
	for _, r := range c.rules {
		if md, ok := r.Match(text); ok {
			return md, r
		}
	}
	return nil, nil
}
