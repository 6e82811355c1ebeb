package xcontent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"sigs.k8s.io/yaml"
)

// Body syntaxes, as returned by mediatype.MediaType.Syntax.
const (
	JSON   = "json"
	NDJSON = "ndjson"
	YAML   = "yaml"
	CBOR   = "cbor"
	Text   = "txt"
	CSV    = "csv"
	TSV    = "tsv"
)

var (
	ErrUnsupportedSyntax = errors.New("unsupported body syntax")
	ErrNotTabular        = errors.New("value cannot be rendered as a table")
)

var cborDecMode = func() cbor.DecMode {
	mode, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

type Options struct {
	Pretty bool
	// Header is the header media type parameter of a tabular response,
	// "present" or "absent". Empty leaves the choice to the Table.
	Header string
}

// IsStructured reports whether syntax encodes arbitrary object trees.
func IsStructured(syntax string) bool {
	switch syntax {
	case JSON, NDJSON, YAML, CBOR:
		return true
	}
	return false
}

// Marshal encodes v in the given syntax.
func Marshal(syntax string, v any, opts Options) ([]byte, error) {
	if t, ok := v.(*Table); ok {
		if !IsStructured(syntax) {
			return t.render(syntax, opts)
		}
		v = t.Records()
	}

	switch syntax {
	case JSON:
		if opts.Pretty {
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return nil, err
			}
			return append(out, '\n'), nil
		}
		return json.Marshal(v)
	case NDJSON:
		out, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case YAML:
		return yaml.Marshal(v)
	case CBOR:
		return cbor.Marshal(v)
	case Text, CSV, TSV:
		return nil, fmt.Errorf("%w: %T as %s", ErrNotTabular, v, syntax)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, syntax)
	}
}

// Unmarshal decodes a request body in the given syntax into v.
func Unmarshal(syntax string, data []byte, v any) error {
	switch syntax {
	case JSON, NDJSON:
		return json.NewDecoder(bytes.NewReader(data)).Decode(v)
	case YAML:
		return yaml.Unmarshal(data, v)
	case CBOR:
		return cborDecMode.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedSyntax, syntax)
	}
}

// ToGeneric converts v into the map/slice/scalar tree encoding/json would
// produce when decoding its JSON form.
func ToGeneric(v any) (any, error) {
	if t, ok := v.(*Table); ok {
		v = t.Records()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
