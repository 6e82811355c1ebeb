package mediatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogParse(t *testing.T) {
	catalog := Default()

	tests := []struct {
		name       string
		value      string
		wantOK     bool
		wantKey    string
		wantParams map[string]string
	}{
		{name: "plain type", value: "application/json", wantOK: true, wantKey: "application/json", wantParams: map[string]string{}},
		{name: "mixed case type", value: "Application/JSON", wantOK: true, wantKey: "application/json", wantParams: map[string]string{}},
		{name: "surrounding whitespace", value: "  application/yaml  ", wantOK: true, wantKey: "application/yaml", wantParams: map[string]string{}},
		{name: "charset parameter", value: "application/json; charset=UTF-8", wantOK: true, wantKey: "application/json", wantParams: map[string]string{"charset": "UTF-8"}},
		{name: "quoted parameter", value: `application/json;charset="utf-8"`, wantOK: true, wantKey: "application/json", wantParams: map[string]string{"charset": "utf-8"}},
		{name: "parameter name case folded", value: "application/json;CHARSET=utf-8", wantOK: true, wantKey: "application/json", wantParams: map[string]string{"charset": "utf-8"}},
		{
			name:       "vendor type with version",
			value:      "application/vnd.search+json; compatible-with=7",
			wantOK:     true,
			wantKey:    "application/vnd.search+json",
			wantParams: map[string]string{"compatible-with": "7"},
		},
		{
			name:       "vendor type with two parameters",
			value:      "application/vnd.search+json;compatible-with=8;charset=utf-8",
			wantOK:     true,
			wantKey:    "application/vnd.search+json",
			wantParams: map[string]string{"compatible-with": "8", "charset": "utf-8"},
		},
		{name: "text header parameter", value: "text/csv; header=absent", wantOK: true, wantKey: "text/csv", wantParams: map[string]string{"header": "absent"}},
		{name: "empty", value: "", wantOK: false},
		{name: "blank", value: "   ", wantOK: false},
		{name: "missing subtype", value: "application", wantOK: false},
		{name: "missing subtype after slash", value: "application/", wantOK: false},
		{name: "unknown type", value: "application/unknown", wantOK: false},
		{name: "trailing garbage", value: "application/json garbage", wantOK: false},
		{name: "trailing semicolon", value: "application/json;", wantOK: false},
		{name: "parameter without value", value: "application/json;charset", wantOK: false},
		{name: "parameter without name", value: "application/json;=utf-8", wantOK: false},
		{name: "unknown parameter", value: "application/json;foo=bar", wantOK: false},
		{name: "parameter value fails pattern", value: "application/vnd.search+json;compatible-with=seven", wantOK: false},
		{name: "one bad parameter fails all", value: "application/vnd.search+json;charset=utf-8;compatible-with=x", wantOK: false},
		{name: "duplicate parameter", value: "application/vnd.search+json;compatible-with=7;compatible-with=8", wantOK: false},
		{name: "version on plain type", value: "application/json;compatible-with=7", wantOK: false},
		{name: "separator in token", value: "application/js(on)", wantOK: false},
		{name: "unterminated quote", value: `application/json;charset="utf-8`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := catalog.Parse(tt.value)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, parsed)
				return
			}
			assert.Equal(t, tt.wantKey, parsed.MediaType.Key())
			assert.Equal(t, tt.wantParams, parsed.Params)
		})
	}
}

func TestParsedMediaTypeString(t *testing.T) {
	parsed, ok := Default().Parse("application/vnd.search+json; compatible-with=7; charset=utf-8")
	require.True(t, ok)
	assert.Equal(t, "application/vnd.search+json;charset=utf-8;compatible-with=7", parsed.String())

	var nilParsed *ParsedMediaType
	assert.Equal(t, "", nilParsed.String())
	_, found := nilParsed.Param("charset")
	assert.False(t, found)
}

func TestQuotedValueKeepsCase(t *testing.T) {
	catalog := NewBuilder().Register(Definition{
		MediaType: MediaType{Type: "application", Subtype: "x-custom"},
		Params:    map[string]string{"profile": "[a-z ]+"},
	}).MustBuild()

	parsed, ok := catalog.Parse(`application/x-custom;profile="Mixed Case"`)
	require.True(t, ok)
	v, _ := parsed.Param("profile")
	assert.Equal(t, "Mixed Case", v)
	assert.Equal(t, `application/x-custom;profile="Mixed Case"`, parsed.String())
}

func TestParseHeader(t *testing.T) {
	catalog := Default()

	tests := []struct {
		name    string
		values  []string
		wantKey string
		wantErr string
	}{
		{name: "absent", values: nil},
		{name: "empty value", values: []string{""}},
		{name: "wildcard", values: []string{"*/*"}},
		{name: "subtype wildcard", values: []string{"application/*"}},
		{name: "list of types", values: []string{"application/json, text/plain"}},
		{name: "single value", values: []string{"application/json"}, wantKey: "application/json"},
		{name: "two values", values: []string{"application/json", "application/yaml"}, wantErr: "only one value should be provided"},
		{name: "malformed value", values: []string{"application/json;;"}, wantErr: "invalid media-type value"},
		{name: "unknown value", values: []string{"image/png"}, wantErr: "invalid media-type value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseHeader(catalog, "Content-Type", tt.values)
			if tt.wantErr != "" {
				require.Error(t, err)
				var perr *ParseError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "Content-Type", perr.Header)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, parsed)
				return
			}
			require.NoError(t, err)
			if tt.wantKey == "" {
				assert.Nil(t, parsed)
				return
			}
			require.NotNil(t, parsed)
			assert.Equal(t, tt.wantKey, parsed.MediaType.Key())
		})
	}
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"application/json",
		"application/vnd.search+json; compatible-with=7",
		`text/plain;charset="utf-8";header=present`,
		"application/json;charset",
		";;;",
		"a/b/c",
		"\x00/\x7f",
	} {
		f.Add(seed)
	}
	catalog := Default()

	f.Fuzz(func(t *testing.T, value string) {
		parsed, ok := catalog.Parse(value)
		if !ok {
			if parsed != nil {
				t.Fatalf("Parse(%q) returned a value with ok=false", value)
			}
			return
		}
		again, ok := catalog.Parse(parsed.String())
		if !ok {
			t.Fatalf("Parse(%q) round trip of %q failed", value, parsed.String())
		}
		if !again.MediaType.Equal(parsed.MediaType) || again.String() != parsed.String() {
			t.Fatalf("round trip = %q, want %q", again.String(), parsed.String())
		}
	})
}
