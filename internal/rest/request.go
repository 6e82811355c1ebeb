package rest

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/searchgate/searchgate/internal/xcontent"
)

const (
	headerAccept      = versioning.HeaderAccept
	headerContentType = versioning.HeaderContentType
	headerOpaqueID    = "X-Opaque-Id"
	headerAllow       = "Allow"
)

// Request is the validated form of an inbound HTTP request. Everything but
// the parameter consumption bookkeeping is fixed at construction.
type Request struct {
	httpReq     *http.Request
	ctx         context.Context
	header      http.Header
	params      map[string]string
	content     []byte
	accept      *mediatype.ParsedMediaType
	contentType *mediatype.ParsedMediaType
	version     versioning.Version

	mu       sync.Mutex
	consumed map[string]struct{}
}

// requestBuilder holds what every attempt at building a Request from one
// inbound HTTP request shares.
type requestBuilder struct {
	parser     mediatype.Parser
	httpReq    *http.Request
	content    []byte
	pathParams map[string]string
}

// build parses the given header set and, when withParams is set, the query
// string. Header problems come back as *HeaderError and query problems as
// *BadParameterError.
func (b *requestBuilder) build(header http.Header, withParams bool) (*Request, error) {
	var failed []string
	var errs []error
	accept, err := mediatype.ParseHeader(b.parser, headerAccept, header.Values(headerAccept))
	if err != nil {
		failed = append(failed, headerAccept)
		errs = append(errs, err)
	}
	contentType, err := mediatype.ParseHeader(b.parser, headerContentType, header.Values(headerContentType))
	if err != nil {
		failed = append(failed, headerContentType)
		errs = append(errs, err)
	}
	if len(failed) > 0 {
		return nil, &HeaderError{Headers: failed, Err: errors.Join(errs...)}
	}

	version, err := versioning.Resolve(accept, contentType, len(b.content) > 0)
	if err != nil {
		headers := []string{headerAccept, headerContentType}
		var obsolete *versioning.ObsoleteVersionError
		if errors.As(err, &obsolete) {
			headers = []string{obsolete.Header}
		}
		return nil, &HeaderError{Headers: headers, Err: err}
	}

	params := map[string]string{}
	if withParams {
		if params, err = decodeQuery(b.httpReq.URL.RawQuery); err != nil {
			return nil, err
		}
	}
	for k, v := range b.pathParams {
		params[k] = v
	}

	return &Request{
		httpReq:     b.httpReq,
		ctx:         b.httpReq.Context(),
		header:      header,
		params:      params,
		content:     b.content,
		accept:      accept,
		contentType: contentType,
		version:     version,
		consumed:    map[string]struct{}{},
	}, nil
}

func (r *Request) Method() string {
	return r.httpReq.Method
}

// URI returns the request target as sent by the client.
func (r *Request) URI() string {
	return r.httpReq.RequestURI
}

func (r *Request) Path() string {
	return r.httpReq.URL.Path
}

func (r *Request) Context() context.Context {
	return r.ctx
}

func (r *Request) Header(name string) string {
	return r.header.Get(name)
}

// Headers returns a copy of the headers the request was built from. Headers
// that failed to parse and were stripped are absent.
func (r *Request) Headers() http.Header {
	return r.header.Clone()
}

func (r *Request) Content() []byte {
	return r.content
}

func (r *Request) HasContent() bool {
	return len(r.content) > 0
}

// Accept returns the parsed Accept header, nil when absent or a media range.
func (r *Request) Accept() *mediatype.ParsedMediaType {
	return r.accept
}

// AcceptedMediaType is the media type the client accepts: the one named by
// Accept, or JSON when Accept is absent or a media range.
func (r *Request) AcceptedMediaType() mediatype.MediaType {
	if r.accept != nil {
		return r.accept.MediaType
	}
	return mediatype.JSON
}

// ContentType returns the parsed Content-Type header, nil when absent.
func (r *Request) ContentType() *mediatype.ParsedMediaType {
	return r.contentType
}

// CompatibleVersion returns the API version the request targets.
func (r *Request) CompatibleVersion() versioning.Version {
	return r.version
}

// DecodeContent decodes the body in the syntax of its Content-Type into v.
func (r *Request) DecodeContent(v any) error {
	syntax := xcontent.JSON
	if r.contentType != nil {
		syntax = r.contentType.MediaType.Syntax()
	}
	if err := xcontent.Unmarshal(syntax, r.content, v); err != nil {
		return illegalArgument("failed to parse request body: %v", err)
	}
	return nil
}

// Param returns a parameter value and marks the parameter consumed.
func (r *Request) Param(name string) (string, bool) {
	r.Consume(name)
	v, ok := r.params[name]
	return v, ok
}

func (r *Request) ParamOrDefault(name, def string) string {
	if v, ok := r.Param(name); ok {
		return v
	}
	return def
}

func (r *Request) ParamAsBool(name string, def bool) (bool, error) {
	v, ok := r.Param(name)
	if !ok {
		return def, nil
	}
	return parseBool(name, v)
}

func (r *Request) ParamAsInt(name string, def int) (int, error) {
	v, ok := r.Param(name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, illegalArgument("Failed to parse int parameter [%s] with value [%s]", name, v)
	}
	return n, nil
}

// ParamAsList splits a comma separated parameter, dropping empty items.
func (r *Request) ParamAsList(name string) []string {
	v, ok := r.Param(name)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// HasParam reports whether a parameter is present without consuming it.
func (r *Request) HasParam(name string) bool {
	_, ok := r.params[name]
	return ok
}

// Params returns a copy of all parameters, path parameters included.
func (r *Request) Params() map[string]string {
	out := make(map[string]string, len(r.params))
	for k, v := range r.params {
		out[k] = v
	}
	return out
}

// Consume marks parameters as recognized.
func (r *Request) Consume(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.consumed[name] = struct{}{}
	}
}

func (r *Request) ConsumedParams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.consumed))
	for name := range r.consumed {
		if _, ok := r.params[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// UnconsumedParams lists present parameters nothing has read.
func (r *Request) UnconsumedParams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for name := range r.params {
		if _, ok := r.consumed[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// requestedParams lists every parameter name something asked for, present
// or not.
func (r *Request) requestedParams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.consumed))
	for name := range r.consumed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
