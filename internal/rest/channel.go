package rest

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/searchgate/searchgate/internal/xcontent"
	"github.com/sirupsen/logrus"
)

// Response parameters read by every channel.
const (
	ParamPretty     = "pretty"
	ParamHuman      = "human"
	ParamErrorTrace = "error_trace"
	ParamFilterPath = "filter_path"
	ParamFormat     = "format"
)

var ErrResponseAlreadySent = errors.New("response already sent")

type channelOptions struct {
	catalog          *mediatype.Catalog
	cors             *CorsHandler
	defaultMediaType mediatype.MediaType
	observer         Observer
	log              logrus.FieldLogger
}

// Channel renders and sends the single response of a request.
type Channel struct {
	w       http.ResponseWriter
	httpReq *http.Request
	req     *Request
	opts    channelOptions
	tc      *ThreadContext

	mediaType   mediatype.MediaType
	headerParam string
	pretty      bool
	human       bool
	errorTrace  bool
	filterPath  []string

	sent   atomic.Bool
	status atomic.Int32
}

// newChannel reads the response parameters of req. An unusable value comes
// back as *IllegalArgumentError.
func newChannel(w http.ResponseWriter, httpReq *http.Request, req *Request, opts channelOptions) (*Channel, error) {
	ch := &Channel{w: w, httpReq: httpReq, req: req, opts: opts}

	var err error
	if ch.pretty, err = req.ParamAsBool(ParamPretty, false); err != nil {
		return nil, err
	}
	if ch.human, err = req.ParamAsBool(ParamHuman, false); err != nil {
		return nil, err
	}
	if ch.errorTrace, err = req.ParamAsBool(ParamErrorTrace, false); err != nil {
		return nil, err
	}
	if req.HasParam(ParamFilterPath) {
		if ch.filterPath = req.ParamAsList(ParamFilterPath); len(ch.filterPath) == 0 {
			return nil, illegalArgument("parameter [%s] must not be empty", ParamFilterPath)
		}
	}

	switch {
	case req.HasParam(ParamFormat):
		format, _ := req.Param(ParamFormat)
		mt, ok := opts.catalog.LookupByFormat(format)
		if !ok {
			return nil, illegalArgument("invalid value [%s] for parameter [%s]", format, ParamFormat)
		}
		ch.mediaType = mt
	case req.Accept() != nil:
		ch.mediaType = req.Accept().MediaType
		ch.headerParam, _ = req.Accept().Param("header")
	case req.ContentType() != nil && xcontent.IsStructured(req.ContentType().MediaType.Syntax()):
		ch.mediaType = req.ContentType().MediaType
	case !opts.defaultMediaType.IsZero():
		ch.mediaType = opts.defaultMediaType
	default:
		ch.mediaType = mediatype.JSON
	}
	return ch, nil
}

func (c *Channel) Request() *Request {
	return c.req
}

// MediaType is the media type response bodies are rendered in.
func (c *Channel) MediaType() mediatype.MediaType {
	return c.mediaType
}

func (c *Channel) Pretty() bool {
	return c.pretty
}

// Human asks for human readable values next to raw ones.
func (c *Channel) Human() bool {
	return c.human
}

func (c *Channel) ErrorTrace() bool {
	return c.errorTrace
}

func (c *Channel) Sent() bool {
	return c.sent.Load()
}

// Status returns the status of the sent response, 0 before sending.
func (c *Channel) Status() int {
	return int(c.status.Load())
}

// SendObject renders v in the channel media type and sends it.
func (c *Channel) SendObject(status int, v any) error {
	syntax := c.mediaType.Syntax()
	if len(c.filterPath) > 0 && xcontent.IsStructured(syntax) {
		generic, err := xcontent.ToGeneric(v)
		if err != nil {
			return c.SendError(&InternalError{Err: err})
		}
		v = filterPaths(generic, c.filterPath)
	}
	body, err := xcontent.Marshal(syntax, v, xcontent.Options{Pretty: c.pretty, Header: c.headerParam})
	if err != nil {
		return c.SendError(&InternalError{Err: err})
	}
	return c.SendResponse(&Response{
		Status:      status,
		ContentType: versioning.ContentType(c.mediaType, c.req.CompatibleVersion()),
		Body:        body,
	})
}

// SendError sends the error body for err with the status it carries, or 500.
func (c *Channel) SendError(err error) error {
	return c.sendError(err, http.StatusInternalServerError)
}

func (c *Channel) sendError(err error, fallback int) error {
	status := StatusOf(err, fallback)
	mt := c.mediaType
	if !xcontent.IsStructured(mt.Syntax()) {
		mt = mediatype.JSON
	}
	body, mErr := xcontent.Marshal(mt.Syntax(), errorDocument(err, status, c.errorTrace), xcontent.Options{Pretty: c.pretty})
	if mErr != nil {
		c.opts.log.WithError(mErr).Error("failed to render error response")
		body = nil
	}
	resp := &Response{
		Status:      status,
		ContentType: versioning.ContentType(mt, c.req.CompatibleVersion()),
		Body:        body,
		Header:      http.Header{},
	}
	var notAllowed *MethodNotAllowedError
	if errors.As(primary(err), &notAllowed) {
		resp.Header.Set(headerAllow, joinMethods(notAllowed.Allowed))
	}
	return c.SendResponse(resp)
}

// SendResponse writes resp. Only the first call on a channel writes; later
// calls return ErrResponseAlreadySent.
func (c *Channel) SendResponse(resp *Response) error {
	if !c.sent.CompareAndSwap(false, true) {
		return ErrResponseAlreadySent
	}
	c.status.Store(int32(resp.Status))

	h := c.w.Header()
	for name, values := range resp.Header {
		for _, v := range values {
			h.Add(name, v)
		}
	}
	if c.tc != nil {
		for name, values := range c.tc.ResponseHeaders() {
			for _, v := range values {
				h.Add(name, v)
			}
		}
	}
	if id := c.req.Header(headerOpaqueID); id != "" {
		h.Set(headerOpaqueID, id)
	}
	c.opts.cors.SetResponseHeaders(c.httpReq, h)
	versioning.AddVary(h, headerAccept, headerContentType)
	if resp.ContentType != "" {
		h.Set(headerContentType, resp.ContentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(resp.Body)))

	c.w.WriteHeader(resp.Status)
	c.opts.observer.ResponseSent(resp.Status)
	if c.httpReq.Method == http.MethodHead || len(resp.Body) == 0 {
		return nil
	}
	_, err := c.w.Write(resp.Body)
	return err
}
