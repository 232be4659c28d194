package naming

import "sort"

// Field names a piece of metadata extracted from a filename.
type Field string

const (
	FieldName        Field = "name"        // series name
	FieldSeason      Field = "season"      // season number
	FieldEpisode     Field = "episode"     // episode number, may carry a ".n" fraction
	FieldEndEpisode  Field = "endepisode"  // last episode of a multi-episode file
	FieldDVD         Field = "dvd"         // disc number of a DVD collection
	FieldPart        Field = "part"        // part number
	FieldSubEpisode  Field = "subepisode"  // trailing sub-episode letter
	FieldEpisodeName Field = "episodename" // episode title
	FieldMovie       Field = "movie"       // movie title
	FieldYear        Field = "year"        // release year
	FieldIMDB        Field = "imdb"        // 7 digit IMDB id
	FieldTitle       Field = "title"       // trailing title after a year or IMDB id
	FieldExtension   Field = "extension"   // file extension without the dot
	FieldDir         Field = "dir"         // directory part of the input
	FieldDidParse    Field = "didParse"    // "1" when a rule matched
)

// parsedMarker is the value stored under FieldDidParse.
const parsedMarker = "1"

var knownFields = []Field{
	FieldName, FieldSeason, FieldEpisode, FieldEndEpisode, FieldDVD, FieldPart,
	FieldSubEpisode, FieldEpisodeName, FieldMovie, FieldYear, FieldIMDB, FieldTitle,
	FieldExtension, FieldDir, FieldDidParse,
}

// KnownFields returns every field name Parse can emit.
func KnownFields() []Field {
	out := make([]Field, len(knownFields))
	copy(out, knownFields)
	return out
}

// IsKnownField reports whether f is one of KnownFields.
func IsKnownField(f Field) bool {
	for _, k := range knownFields {
		if k == f {
			return true
		}
	}
	return false
}

// Metadata is the sparse result of parsing a filename. A field is present
// only when it was found; values are kept exactly as they appeared ("01"
// stays "01").
type Metadata map[Field]string

// Get returns the value of f and whether it was present.
func (m Metadata) Get(f Field) (string, bool) {
	v, ok := m[f]
	return v, ok
}

// Has reports whether f is present.
func (m Metadata) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Parsed reports whether a catalog rule matched.
func (m Metadata) Parsed() bool {
	return m[FieldDidParse] == parsedMarker
}

// Fields returns the present field names in sorted order.
func (m Metadata) Fields() []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a copy that shares no state with m.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Strings converts m to a plain string map, the shape used on the wire and
// in the database.
func (m Metadata) Strings() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// FromStrings builds Metadata from a plain string map.
func FromStrings(src map[string]string) Metadata {
	out := make(Metadata, len(src))
	for k, v := range src {
		out[Field(k)] = v
	}
	return out
}

// MediaKind classifies parsed metadata
type MediaKind int

const (
	KindUnknown MediaKind = iota // nothing matched
	KindEpisode                  // series fields were found
	KindMovie                    // movie fields were found
)

// String returns a human-readable representation of the kind
func (k MediaKind) String() string {
	switch k {
	case KindEpisode:
		return "episode"
	case KindMovie:
		return "movie"
	default:
		return "unknown"
	}
}

// Kind derives the media kind from the fields present. It does not look at
// values.
func (m Metadata) Kind() MediaKind {
	switch {
	case m.Has(FieldEpisode), m.Has(FieldSeason), m.Has(FieldDVD):
		return KindEpisode
	case m.Has(FieldMovie), m.Has(FieldIMDB), m.Has(FieldYear):
		return KindMovie
	default:
		return KindUnknown
	}
}
