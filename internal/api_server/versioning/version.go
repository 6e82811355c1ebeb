package versioning

import (
	"context"
	"strconv"
)

// Version is an API major version.
type Version int

const (
	V7 Version = 7
	V8 Version = 8
)

const (
	// Current is the API generation new clients target.
	Current = V8
	// Compatible is the previous generation, still served for clients that
	// ask for it with a compatible-with media type parameter.
	Compatible = Current - 1
)

// Header names
const (
	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"
	HeaderVary        = "Vary"
	HeaderWarning     = "Warning"
)

// Served returns every version this server answers, current first.
func Served() []Version {
	return []Version{Current, Compatible}
}

func (v Version) String() string {
	return strconv.Itoa(int(v))
}

// IsValid returns true if the version is served
func (v Version) IsValid() bool {
	return v == Current || v == Compatible
}

type versionCtxKey struct{}

// ContextWithVersion stores the resolved version in context
func ContextWithVersion(ctx context.Context, v Version) context.Context {
	return context.WithValue(ctx, versionCtxKey{}, v)
}

// VersionFromContext retrieves the resolved version from context
func VersionFromContext(ctx context.Context) (Version, bool) {
	v, ok := ctx.Value(versionCtxKey{}).(Version)
	return v, ok
}
