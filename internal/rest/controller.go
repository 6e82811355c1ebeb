package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/searchgate/searchgate/pkg/log"
	"github.com/sirupsen/logrus"
)

// DefaultPropagateHeaders are copied from the request into its ThreadContext.
var DefaultPropagateHeaders = []string{headerOpaqueID, "Traceparent"}

// ControllerConfig holds the collaborators of a Controller.
type ControllerConfig struct {
	Routes  *Routes
	Catalog *mediatype.Catalog
	// Parser defaults to Catalog.
	Parser   mediatype.Parser
	Cors     *CorsHandler
	Executor *Executor
	// MaxContentLength bounds request bodies, 0 means unbounded.
	MaxContentLength int64
	PropagateHeaders []string
	Observer         Observer
	Log              logrus.FieldLogger
}

// Controller is the entry point of every REST request: it negotiates media
// types and the API version, resolves the handler and dispatches to it, or
// answers with a client error when the request cannot be served.
type Controller struct {
	routes           *Routes
	catalog          *mediatype.Catalog
	parser           mediatype.Parser
	cors             *CorsHandler
	executor         *Executor
	maxContentLength int64
	propagateHeaders []string
	contentTypes     []mediatype.MediaType
	observer         Observer
	log              logrus.FieldLogger
}

// NewController freezes cfg.Routes and returns a Controller serving them.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Routes == nil {
		return nil, errors.New("controller requires routes")
	}
	c := &Controller{
		routes:           cfg.Routes,
		catalog:          cfg.Catalog,
		parser:           cfg.Parser,
		cors:             cfg.Cors,
		executor:         cfg.Executor,
		maxContentLength: cfg.MaxContentLength,
		propagateHeaders: cfg.PropagateHeaders,
		observer:         cfg.Observer,
		log:              cfg.Log,
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.catalog == nil {
		c.catalog = mediatype.Default()
	}
	if c.parser == nil {
		c.parser = c.catalog
	}
	if c.executor == nil {
		c.executor = NewExecutor(c.log, 0)
	}
	if c.propagateHeaders == nil {
		c.propagateHeaders = DefaultPropagateHeaders
	}
	if c.observer == nil {
		c.observer = noopObserver{}
	}
	c.contentTypes = c.catalog.BodyMediaTypes()
	c.routes.Freeze()
	return c, nil
}

// Observer returns the observer dispatch events are reported to.
func (c *Controller) Observer() Observer {
	return c.observer
}

// Routes returns the route table the controller serves.
func (c *Controller) Routes() *Routes {
	return c.routes
}

func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := log.WithReqIDFromCtx(r.Context(), c.log)

	if resp := c.cors.HandleInbound(r); resp != nil {
		if r.Close {
			resp.Header.Set("Connection", "close")
		}
		c.observer.RequestDispatched(OutcomeCors, versioning.Current)
		c.writeResponse(w, r, resp)
		return
	}

	content, err := readContent(r, c.maxContentLength)
	if err != nil {
		c.fail(w, r, err, log)
		return
	}

	var badRequestCause error
	accept, acceptErr := mediatype.ParseHeader(c.parser, headerAccept, r.Header.Values(headerAccept))
	badRequestCause = useOrSuppress(badRequestCause, acceptErr)
	contentType, contentTypeErr := mediatype.ParseHeader(c.parser, headerContentType, r.Header.Values(headerContentType))
	badRequestCause = useOrSuppress(badRequestCause, contentTypeErr)

	table, pathParams := c.routes.Find(r.URL.Path)
	var handler Handler
	if table != nil {
		version := versioning.Current
		var versionErr error
		if acceptErr == nil && contentTypeErr == nil {
			if version, versionErr = versioning.Resolve(accept, contentType, len(content) > 0); versionErr != nil {
				version = versioning.Current
			}
		}
		if handler = table.Get(r.Method, version); handler != nil {
			badRequestCause = useOrSuppress(badRequestCause, versionErr)
			if contentTypeErr == nil && len(content) > 0 {
				badRequestCause = useOrSuppress(badRequestCause, c.validateContentType(contentType))
			}
			badRequestCause = useOrSuppress(badRequestCause, validateAccept(handler, accept))
		}
	}

	builder := &requestBuilder{parser: c.parser, httpReq: r, content: content, pathParams: pathParams}
	req, err := builder.build(r.Header, true)
	if err != nil {
		if req, err = c.recoverRequest(builder, err, &badRequestCause); err != nil {
			c.fail(w, r, err, log)
			return
		}
	}

	opts := c.channelOptions(handler, log)
	ch, err := newChannel(w, r, req, opts)
	if err != nil {
		var illegal *IllegalArgumentError
		if !errors.As(err, &illegal) {
			c.fail(w, r, err, log)
			return
		}
		badRequestCause = useOrSuppress(badRequestCause, err)
		c.observer.RequestRecovered(RecoveryChannel)
		if req, err = builder.build(req.header, false); err != nil {
			c.fail(w, r, err, log)
			return
		}
		if ch, err = newChannel(w, r, req, opts); err != nil {
			c.fail(w, r, err, log)
			return
		}
	}

	ctx, tc, release := stashThreadContext(r.Context(), req.header, c.propagateHeaders)
	defer release()
	req.ctx = versioning.ContextWithVersion(ctx, req.version)
	ch.tc = tc

	if badRequestCause != nil {
		c.dispatchBadRequest(ch, badRequestCause, log)
		return
	}
	c.dispatchRequest(req, ch, table, handler, log)
}

// recoverRequest rebuilds a request whose first build failed, dropping the
// client input that caused the failure. Recovered errors are added to cause.
// A rebuild that still fails is an internal error carrying cause.
func (c *Controller) recoverRequest(b *requestBuilder, err error, cause *error) (*Request, error) {
	var headerErr *HeaderError
	var paramErr *BadParameterError
	switch {
	case errors.As(err, &headerErr):
		*cause = useOrSuppress(*cause, err)
		c.observer.RequestRecovered(RecoveryHeader)
		header := b.httpReq.Header.Clone()
		for _, name := range headerErr.Headers {
			header.Del(name)
		}
		req, err := b.build(header, true)
		if errors.As(err, &paramErr) {
			*cause = useOrSuppress(*cause, err)
			c.observer.RequestRecovered(RecoveryParameters)
			req, err = b.build(header, false)
		}
		return req, recoveryFailed(err, *cause)
	case errors.As(err, &paramErr):
		*cause = useOrSuppress(*cause, err)
		c.observer.RequestRecovered(RecoveryParameters)
		req, err := b.build(b.httpReq.Header, false)
		return req, recoveryFailed(err, *cause)
	default:
		return nil, err
	}
}

// recoveryFailed turns the error of a rebuild into an internal error with
// every client error collected so far recorded as suppressed.
func recoveryFailed(err, cause error) error {
	if err == nil {
		return nil
	}
	failed := error(&InternalError{Err: fmt.Errorf("failed to rebuild request: %w", err)})
	if cause == nil {
		return failed
	}
	for _, e := range append([]error{primary(cause)}, suppressed(cause)...) {
		failed = useOrSuppress(failed, e)
	}
	return failed
}

// validateContentType checks the Content-Type of a request with a body.
// Without a body there is nothing to decode and the header is not checked.
func (c *Controller) validateContentType(contentType *mediatype.ParsedMediaType) error {
	if contentType == nil {
		return &UnsupportedMediaTypeError{Header: headerContentType}
	}
	if !containsMediaType(c.contentTypes, contentType.MediaType) {
		return &UnsupportedMediaTypeError{Header: headerContentType, MediaType: contentType.MediaType.Key()}
	}
	return nil
}

func validateAccept(h Handler, accept *mediatype.ParsedMediaType) error {
	if accept == nil || containsMediaType(validAcceptMediaTypes(h), accept.MediaType) {
		return nil
	}
	return &UnsupportedMediaTypeError{Header: headerAccept, MediaType: accept.MediaType.Key()}
}

func containsMediaType(types []mediatype.MediaType, mt mediatype.MediaType) bool {
	return lo.ContainsBy(types, func(t mediatype.MediaType) bool { return t.Equal(mt) })
}

func (c *Controller) channelOptions(h Handler, log logrus.FieldLogger) channelOptions {
	opts := channelOptions{
		catalog:  c.catalog,
		cors:     c.cors,
		observer: c.observer,
		log:      log,
	}
	if d, ok := h.(ResponseDefaulter); ok {
		opts.defaultMediaType = d.DefaultResponseMediaType()
	}
	return opts
}

func (c *Controller) dispatchBadRequest(ch *Channel, cause error, log logrus.FieldLogger) {
	c.observer.RequestDispatched(OutcomeBadRequest, ch.req.version)
	log.WithError(cause).Debugf("bad request for [%s %s]", ch.req.Method(), ch.req.URI())
	if err := ch.sendError(cause, http.StatusBadRequest); err != nil {
		log.WithError(err).Warn("failed to send bad request response")
	}
}

func (c *Controller) dispatchRequest(req *Request, ch *Channel, table *MethodHandlers, h Handler, log logrus.FieldLogger) {
	var err error
	switch {
	case table == nil:
		c.observer.RequestDispatched(OutcomeNoHandler, req.version)
		err = ch.sendError(&NoHandlerError{Method: req.Method(), URI: req.URI()}, http.StatusBadRequest)
	case h == nil && req.Method() == http.MethodOptions:
		c.observer.RequestDispatched(OutcomeOptions, req.version)
		allowed := append(table.ValidMethods(), http.MethodOptions)
		err = ch.SendResponse(&Response{
			Status: http.StatusOK,
			Header: http.Header{headerAllow: []string{joinMethods(lo.Uniq(allowed))}},
		})
	case h == nil && lo.Contains(table.ValidMethods(), req.Method()):
		c.observer.RequestDispatched(OutcomeNoHandler, req.version)
		err = ch.sendError(&NoHandlerError{Method: req.Method(), URI: req.URI()}, http.StatusBadRequest)
	case h == nil:
		c.observer.RequestDispatched(OutcomeMethodNotAllowed, req.version)
		err = ch.sendError(&MethodNotAllowedError{Method: req.Method(), URI: req.URI(), Allowed: table.ValidMethods()}, http.StatusMethodNotAllowed)
	default:
		if req.version == versioning.Compatible && handlerVersion(h) == versioning.Current && !isCompatible(h) {
			log.Debugf("serving version %s request for [%s] with the current handler", req.version, table.Path())
		}
		c.observer.RequestDispatched(OutcomeHandled, req.version)
		if err = c.executor.Execute(req.Context(), h, req, ch); err != nil {
			if ch.Sent() {
				log.WithError(err).Warnf("handler for [%s] failed after sending its response", table.Path())
				return
			}
			log.WithError(err).Debugf("handler for [%s] failed", table.Path())
			err = ch.SendError(err)
		} else if !ch.Sent() {
			err = ch.SendError(&InternalError{Err: fmt.Errorf("handler for [%s] returned without a response", table.Path())})
		}
	}
	if err != nil {
		log.WithError(err).Warn("failed to send response")
	}
}

// fail answers a request that could not be turned into a Request at all.
func (c *Controller) fail(w http.ResponseWriter, r *http.Request, err error, log logrus.FieldLogger) {
	status := StatusOf(err, http.StatusInternalServerError)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Errorf("failed to dispatch [%s %s]", r.Method, r.RequestURI)
	}
	c.observer.RequestDispatched(OutcomeFailed, versioning.Current)
	body, mErr := json.Marshal(errorDocument(err, status, false))
	if mErr != nil {
		body = nil
	}
	c.writeResponse(w, r, &Response{Status: status, ContentType: mediatype.JSON.Key(), Body: body})
}

// writeResponse sends resp without a Channel.
func (c *Controller) writeResponse(w http.ResponseWriter, r *http.Request, resp *Response) {
	h := w.Header()
	for name, values := range resp.Header {
		for _, v := range values {
			h.Add(name, v)
		}
	}
	if resp.ContentType != "" {
		h.Set(headerContentType, resp.ContentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	c.observer.ResponseSent(resp.Status)
	if r.Method != http.MethodHead && len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

// ContentTooLargeError is returned for a body over the configured limit.
type ContentTooLargeError struct {
	Limit int64
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf("request content exceeds the limit of %d bytes", e.Limit)
}

func (e *ContentTooLargeError) StatusCode() int {
	return http.StatusRequestEntityTooLarge
}

func readContent(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body := io.Reader(r.Body)
	if limit > 0 {
		body = io.LimitReader(r.Body, limit+1)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &ContentTooLargeError{Limit: maxErr.Limit}
		}
		return nil, &IllegalArgumentError{Message: "failed to read request content: " + err.Error()}
	}
	if limit > 0 && int64(len(content)) > limit {
		return nil, &ContentTooLargeError{Limit: limit}
	}
	return content, nil
}

func joinMethods(methods []string) string {
	return strings.Join(methods, ",")
}
