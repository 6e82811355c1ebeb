package rest

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/mediatype"
)

// Consumer sends the response prepared by a BaseHandler.
type Consumer func(ch *Channel) error

// BaseHandler splits a handler into a prepare phase, which reads the request
// parameters, and a Consumer that sends the response. Parameters nothing
// read during prepare are rejected before the consumer runs.
type BaseHandler struct {
	Prepare func(req *Request) (Consumer, error)
	// ResponseParams are only read while rendering the response.
	ResponseParams []string
	// AcceptTypes defaults to the structured media types when empty.
	AcceptTypes []mediatype.MediaType
	DefaultType mediatype.MediaType
	// Version defaults to Current.
	Version versioning.Version
}

func (b *BaseHandler) HandleRequest(req *Request, ch *Channel) error {
	consumer, err := b.Prepare(req)
	if err != nil {
		return err
	}
	req.Consume(b.ResponseParams...)
	if unconsumed := req.UnconsumedParams(); len(unconsumed) > 0 {
		return unrecognizedParams(req, unconsumed)
	}
	return consumer(ch)
}

func (b *BaseHandler) CompatibleWith() versioning.Version {
	if b.Version == 0 {
		return versioning.Current
	}
	return b.Version
}

func (b *BaseHandler) ValidAcceptMediaTypes() []mediatype.MediaType {
	return b.AcceptTypes
}

func (b *BaseHandler) DefaultResponseMediaType() mediatype.MediaType {
	return b.DefaultType
}

func unrecognizedParams(req *Request, unconsumed []string) error {
	known := req.requestedParams()
	items := make([]string, 0, len(unconsumed))
	for _, name := range unconsumed {
		item := "[" + name + "]"
		if s := suggest(name, known); len(s) > 0 {
			item += " -> did you mean " + bracketList(s) + "?"
		}
		items = append(items, item)
	}
	plural := ""
	if len(unconsumed) > 1 {
		plural = "s"
	}
	return illegalArgument("request [%s] contains unrecognized parameter%s: %s", req.Path(), plural, strings.Join(items, ", "))
}

// suggest returns the known names within a small edit distance of name.
func suggest(name string, known []string) []string {
	var out []string
	for _, k := range known {
		if d := levenshtein.ComputeDistance(name, k); d > 0 && d <= maxSuggestDistance(name) {
			out = append(out, k)
		}
	}
	return out
}

func maxSuggestDistance(name string) int {
	if len(name) <= 4 {
		return 1
	}
	return 2
}

func bracketList(names []string) string {
	if len(names) == 1 {
		return "[" + names[0] + "]"
	}
	return fmt.Sprintf("any of [%s]", strings.Join(names, ", "))
}
