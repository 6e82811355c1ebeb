package versioning

import (
	"fmt"
	"net/http"
)

// AmbiguousVersionError is returned when a request with a body does not
// name the same API version in its Accept and Content-Type headers.
type AmbiguousVersionError struct {
	Accept      string
	ContentType string
	Reason      string
}

func (e *AmbiguousVersionError) Error() string {
	return fmt.Sprintf("ambiguous version: %s. Accept=%s Content-Type=%s", e.Reason, e.Accept, e.ContentType)
}

func (e *AmbiguousVersionError) StatusCode() int {
	return http.StatusBadRequest
}

// ObsoleteVersionError is returned for a compatible-with marker outside the
// served versions.
type ObsoleteVersionError struct {
	Header string
	Marker string
}

func (e *ObsoleteVersionError) Error() string {
	return fmt.Sprintf("version no longer supported: [%s] requests %s=%s, supported versions are [%s, %s]",
		e.Header, compatibleWithParam, e.Marker, Current, Compatible)
}

func (e *ObsoleteVersionError) StatusCode() int {
	return http.StatusBadRequest
}
