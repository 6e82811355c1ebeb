package mediatype

import "sync"

// CompatibleWithParam is the media type parameter carrying the API major
// version a header targets.
const CompatibleWithParam = "compatible-with"

const (
	charsetPattern = "utf-8"
	versionPattern = `\d+`
	headerPattern  = "present|absent"
)

var (
	JSON   = MediaType{Type: "application", Subtype: "json", Format: "json"}
	YAML   = MediaType{Type: "application", Subtype: "yaml", Format: "yaml"}
	CBOR   = MediaType{Type: "application", Subtype: "cbor", Format: "cbor"}
	NDJSON = MediaType{Type: "application", Subtype: "x-ndjson", Format: "ndjson"}

	VendorJSON   = MediaType{Type: "application", Subtype: "vnd.search+json"}
	VendorYAML   = MediaType{Type: "application", Subtype: "vnd.search+yaml"}
	VendorCBOR   = MediaType{Type: "application", Subtype: "vnd.search+cbor"}
	VendorNDJSON = MediaType{Type: "application", Subtype: "vnd.search+x-ndjson"}

	Text = MediaType{Type: "text", Subtype: "plain", Format: "txt"}
	CSV  = MediaType{Type: "text", Subtype: "csv", Format: "csv"}
	TSV  = MediaType{Type: "text", Subtype: "tab-separated-values", Format: "tsv"}
)

// Structured lists the media types with a structured body syntax. Handlers
// accept these unless they declare otherwise.
func Structured() []MediaType {
	return []MediaType{JSON, YAML, CBOR, NDJSON, VendorJSON, VendorYAML, VendorCBOR, VendorNDJSON}
}

// Tabular lists the plain text table formats.
func Tabular() []MediaType {
	return []MediaType{Text, CSV, TSV}
}

// Definitions returns the built-in media type definitions.
func Definitions() []Definition {
	var defs []Definition
	for _, mt := range []MediaType{JSON, YAML, CBOR, NDJSON} {
		defs = append(defs, Definition{
			MediaType: mt,
			Params:    map[string]string{"charset": charsetPattern},
			Body:      true,
		})
	}
	for _, mt := range []MediaType{VendorJSON, VendorYAML, VendorCBOR, VendorNDJSON} {
		defs = append(defs, Definition{
			MediaType: mt,
			Params: map[string]string{
				"charset":           charsetPattern,
				CompatibleWithParam: versionPattern,
			},
			Body: true,
		})
	}
	for _, mt := range Tabular() {
		defs = append(defs, Definition{
			MediaType: mt,
			Params: map[string]string{
				"charset": charsetPattern,
				"header":  headerPattern,
			},
		})
	}
	return defs
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	return NewBuilder().Register(Definitions()...).MustBuild()
})

// Default returns the catalog built from Definitions.
func Default() *Catalog {
	return defaultCatalog()
}
