package rest

import (
	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/mediatype"
)

// ParameterConsumer marks a legacy parameter of a compatible version request
// as recognized.
type ParameterConsumer func(req *Request)

// WrapCompatible decorates h so that requests targeting the compatible
// version first go through consumers. Current version requests pass
// through unchanged.
func WrapCompatible(h Handler, consumers ...ParameterConsumer) Handler {
	return &compatibleHandler{inner: h, consumers: consumers}
}

type compatibleHandler struct {
	inner     Handler
	consumers []ParameterConsumer
}

func (c *compatibleHandler) HandleRequest(req *Request, ch *Channel) error {
	if req.CompatibleVersion() == versioning.Compatible {
		for _, consume := range c.consumers {
			consume(req)
		}
	}
	return c.inner.HandleRequest(req, ch)
}

func (c *compatibleHandler) Compatible() bool {
	return true
}

func (c *compatibleHandler) CompatibleWith() versioning.Version {
	return handlerVersion(c.inner)
}

func (c *compatibleHandler) ValidAcceptMediaTypes() []mediatype.MediaType {
	return validAcceptMediaTypes(c.inner)
}

func (c *compatibleHandler) DefaultResponseMediaType() mediatype.MediaType {
	if d, ok := c.inner.(ResponseDefaulter); ok {
		return d.DefaultResponseMediaType()
	}
	return mediatype.MediaType{}
}

// ConsumeParams marks the named parameters consumed.
func ConsumeParams(names ...string) ParameterConsumer {
	return func(req *Request) {
		req.Consume(names...)
	}
}

// DeprecationWarning adds a Warning response header carrying message.
func DeprecationWarning(message string) ParameterConsumer {
	return func(req *Request) {
		if tc, ok := ThreadContextFrom(req.Context()); ok {
			tc.AddWarning(message)
		}
	}
}
