package mediatype

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	tokenPattern  = "[!#$%&'*+.^_`|~0-9A-Za-z-]+"
	quotedPattern = `"(?:[^"\\\x00-\x08\x0a-\x1f\x7f]|\\[\x09\x20-\x7e])*"`
)

var (
	tokenRegexp     = regexp.MustCompile(`^` + tokenPattern + `$`)
	mediaTypeRegexp = regexp.MustCompile(
		`^(` + tokenPattern + `)/(` + tokenPattern + `)((?:[ \t]*;[ \t]*` + tokenPattern + `=(?:` + tokenPattern + `|` + quotedPattern + `))*)$`)
	parameterRegexp = regexp.MustCompile(
		`;[ \t]*(` + tokenPattern + `)=(` + tokenPattern + `|` + quotedPattern + `)`)
)

// Parser turns a single header value into a ParsedMediaType.
type Parser interface {
	Parse(value string) (*ParsedMediaType, bool)
}

// Parse matches value against the media-type grammar and the catalog. The
// result is nil, false when the value is empty, malformed, names an unknown
// type, or carries any parameter the catalog does not accept for that type.
func (c *Catalog) Parse(value string) (*ParsedMediaType, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	m := mediaTypeRegexp.FindStringSubmatch(value)
	if m == nil {
		return nil, false
	}
	key := strings.ToLower(m[1]) + "/" + strings.ToLower(m[2])
	mt, ok := c.byKey[key]
	if !ok {
		return nil, false
	}

	allowed := c.params[key]
	params := make(map[string]string)
	for _, p := range parameterRegexp.FindAllStringSubmatch(m[3], -1) {
		name := strings.ToLower(p[1])
		if name == "" {
			return nil, false
		}
		if _, dup := params[name]; dup {
			return nil, false
		}
		v := unquote(p[2])
		pattern, ok := allowed[name]
		if !ok || !pattern.MatchString(v) {
			return nil, false
		}
		params[name] = v
	}
	return &ParsedMediaType{MediaType: mt, Params: params}, true
}

func unquote(v string) string {
	if len(v) < 2 || v[0] != '"' {
		return v
	}
	v = v[1 : len(v)-1]
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

// IsMediaRange reports whether a header value lists several media types or
// uses wildcards. Such values carry no usable preference for this layer.
func IsMediaRange(value string) bool {
	if strings.Contains(value, ",") {
		return true
	}
	base, _, _ := strings.Cut(value, ";")
	return strings.Contains(base, "*")
}

// ParseHeader parses the values of one header. No value, or a media range,
// yields nil without error. More than one value, or a value the parser
// rejects, yields a *ParseError naming the header.
func ParseHeader(p Parser, name string, values []string) (*ParsedMediaType, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, &ParseError{Header: name, Value: strings.Join(values, ", "), Reason: "only one value should be provided"}
	}
	value := strings.TrimSpace(values[0])
	if value == "" || IsMediaRange(value) {
		return nil, nil
	}
	parsed, ok := p.Parse(value)
	if !ok {
		return nil, &ParseError{Header: name, Value: value, Reason: "invalid media-type value"}
	}
	return parsed, nil
}

// ParseError reports a header whose value could not be turned into a known
// media type.
type ParseError struct {
	Header string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s on header [%s]: [%s]", e.Reason, e.Header, e.Value)
}

func (e *ParseError) ErrorType() string {
	return "media_type_parse_error"
}

func (e *ParseError) StatusCode() int {
	return 400
}
