package versioning

import (
	"strconv"

	"github.com/searchgate/searchgate/internal/mediatype"
)

const compatibleWithParam = mediatype.CompatibleWithParam

// Resolve computes the API version a request targets from its parsed Accept
// and Content-Type headers. Either may be nil when the header was absent.
//
// Without a body only Accept counts. With a body both headers must agree:
// both unmarked resolves to Current, both marked with the same served
// version resolves to that version, anything else is ambiguous.
func Resolve(accept, contentType *mediatype.ParsedMediaType, bodyPresent bool) (Version, error) {
	acceptVersion, err := markerOf(HeaderAccept, accept)
	if err != nil {
		return 0, err
	}

	if bodyPresent {
		contentVersion, err := markerOf(HeaderContentType, contentType)
		if err != nil {
			return 0, err
		}
		if acceptVersion != 0 && contentVersion != 0 && acceptVersion != contentVersion {
			return 0, &AmbiguousVersionError{
				Accept:      accept.String(),
				ContentType: contentType.String(),
				Reason:      "Content-Type and Accept headers have to match when content is present",
			}
		}
		if (acceptVersion == 0) != (contentVersion == 0) {
			return 0, &AmbiguousVersionError{
				Accept:      accept.String(),
				ContentType: contentType.String(),
				Reason:      "versioned media types are required for both Accept and Content-Type headers when content is present",
			}
		}
		if contentVersion != 0 {
			return contentVersion, nil
		}
	}

	if acceptVersion != 0 {
		return acceptVersion, nil
	}
	return Current, nil
}

// markerOf returns the served version a header names, or 0 when it carries
// no compatible-with parameter.
func markerOf(header string, parsed *mediatype.ParsedMediaType) (Version, error) {
	marker, ok := parsed.Param(compatibleWithParam)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(marker, 10, 32)
	if err != nil || !Version(n).IsValid() {
		return 0, &ObsoleteVersionError{Header: header, Marker: marker}
	}
	return Version(n), nil
}

// Requested returns the version a single header asks for, Current when it
// carries no marker.
func Requested(header string, parsed *mediatype.ParsedMediaType) (Version, error) {
	v, err := markerOf(header, parsed)
	if err != nil || v != 0 {
		return v, err
	}
	return Current, nil
}
