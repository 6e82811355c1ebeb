package rest

import (
	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/mediatype"
)

// Handler runs the business logic for one route. It must send exactly one
// response on ch, or return an error for the caller to send instead.
type Handler interface {
	HandleRequest(req *Request, ch *Channel) error
}

type HandlerFunc func(req *Request, ch *Channel) error

func (f HandlerFunc) HandleRequest(req *Request, ch *Channel) error {
	return f(req, ch)
}

// VersionedHandler declares the API version a handler was written for.
// Handlers that do not implement it serve the current version.
type VersionedHandler interface {
	Handler
	CompatibleWith() versioning.Version
}

// MediaTypeAware handlers restrict the Accept media types they answer.
// Others answer every structured type.
type MediaTypeAware interface {
	ValidAcceptMediaTypes() []mediatype.MediaType
}

// ResponseDefaulter handlers pick the response media type used when the
// request names none.
type ResponseDefaulter interface {
	DefaultResponseMediaType() mediatype.MediaType
}

// CompatibleHandler is implemented by handlers that understand the
// compatible version wrapping protocol.
type CompatibleHandler interface {
	Handler
	Compatible() bool
}

func handlerVersion(h Handler) versioning.Version {
	if v, ok := h.(VersionedHandler); ok {
		return v.CompatibleWith()
	}
	return versioning.Current
}

func validAcceptMediaTypes(h Handler) []mediatype.MediaType {
	if aware, ok := h.(MediaTypeAware); ok {
		if types := aware.ValidAcceptMediaTypes(); len(types) > 0 {
			return types
		}
	}
	return mediatype.Structured()
}

func isCompatible(h Handler) bool {
	c, ok := h.(CompatibleHandler)
	return ok && c.Compatible()
}
