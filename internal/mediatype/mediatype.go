package mediatype

import (
	"sort"
	"strings"
)

// MediaType identifies a content format by its type/subtype pair. Format is
// the optional short alias accepted by the format query parameter.
type MediaType struct {
	Type    string
	Subtype string
	Format  string
}

// Key returns the registry key "type/subtype".
func (m MediaType) Key() string {
	return m.Type + "/" + m.Subtype
}

func (m MediaType) String() string {
	return m.Key()
}

// Equal compares by type and subtype only.
func (m MediaType) Equal(other MediaType) bool {
	return m.Type == other.Type && m.Subtype == other.Subtype
}

func (m MediaType) IsZero() bool {
	return m.Type == "" && m.Subtype == ""
}

// IsVendor reports whether the subtype lives in the vendor tree (vnd.*).
func (m MediaType) IsVendor() bool {
	return strings.HasPrefix(m.Subtype, "vnd.")
}

// Syntax returns the body syntax used to encode this media type: the format
// alias when there is one, otherwise the structured syntax suffix of a vendor
// subtype, otherwise the subtype itself.
func (m MediaType) Syntax() string {
	if m.Format != "" {
		return m.Format
	}
	if i := strings.LastIndexByte(m.Subtype, '+'); i >= 0 {
		syntax := m.Subtype[i+1:]
		if syntax == "x-ndjson" {
			return "ndjson"
		}
		return syntax
	}
	return m.Subtype
}

// Definition binds a MediaType to the parameters it accepts. Params maps a
// parameter name to a raw regular expression its value must fully match.
type Definition struct {
	MediaType MediaType
	Params    map[string]string
	// Body marks types a request body may be sent in.
	Body bool
}

// ParsedMediaType is the result of parsing one header value.
type ParsedMediaType struct {
	MediaType MediaType
	Params    map[string]string
}

// Param returns the value of a parameter present on the wire.
func (p *ParsedMediaType) Param(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.Params[strings.ToLower(name)]
	return v, ok
}

// String re-serializes the media type with its parameters in name order.
// Values that are not tokens are written as quoted strings.
func (p *ParsedMediaType) String() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.MediaType.Key())
	names := make([]string, 0, len(p.Params))
	for name := range p.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteByte(';')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(p.Params[name]))
	}
	return b.String()
}

func quoteIfNeeded(v string) string {
	if v != "" && tokenRegexp.MatchString(v) {
		return v
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		if v[i] == '"' || v[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(v[i])
	}
	b.WriteByte('"')
	return b.String()
}
