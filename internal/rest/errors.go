package rest

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/stoewer/go-strcase"
)

// HeaderError reports request headers that could not be interpreted while
// building a Request. Headers lists the offending header names.
type HeaderError struct {
	Headers []string
	Err     error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid %s header: %v", strings.Join(e.Headers, " and "), e.Err)
}

func (e *HeaderError) Unwrap() error {
	return e.Err
}

func (e *HeaderError) StatusCode() int {
	return http.StatusBadRequest
}

// BadParameterError reports a query string that could not be decoded.
type BadParameterError struct {
	Err error
}

func (e *BadParameterError) Error() string {
	return fmt.Sprintf("failed to parse request parameters: %v", e.Err)
}

func (e *BadParameterError) Unwrap() error {
	return e.Err
}

func (e *BadParameterError) StatusCode() int {
	return http.StatusBadRequest
}

// IllegalArgumentError reports a parameter whose value is not acceptable.
type IllegalArgumentError struct {
	Message string
}

func (e *IllegalArgumentError) Error() string {
	return e.Message
}

func (e *IllegalArgumentError) StatusCode() int {
	return http.StatusBadRequest
}

func illegalArgument(format string, args ...any) error {
	return &IllegalArgumentError{Message: fmt.Sprintf(format, args...)}
}

// UnsupportedMediaTypeError reports a parsed media type outside the allow-list
// of the header it came from.
type UnsupportedMediaTypeError struct {
	Header    string
	MediaType string
}

func (e *UnsupportedMediaTypeError) Error() string {
	if e.MediaType == "" {
		return fmt.Sprintf("%s header is missing", e.Header)
	}
	return fmt.Sprintf("%s header [%s] is not supported", e.Header, e.MediaType)
}

func (e *UnsupportedMediaTypeError) StatusCode() int {
	if e.Header == headerAccept {
		return http.StatusNotAcceptable
	}
	return http.StatusUnsupportedMediaType
}

// RejectedExecutionError is returned when every execution slot is taken.
type RejectedExecutionError struct {
	Limit int64
}

func (e *RejectedExecutionError) Error() string {
	return fmt.Sprintf("rejected execution: all %d handler slots are busy", e.Limit)
}

func (e *RejectedExecutionError) StatusCode() int {
	return http.StatusTooManyRequests
}

func (e *RejectedExecutionError) ErrorType() string {
	return "rejected_execution_exception"
}

// NoHandlerError is returned when nothing is registered for a path and method.
type NoHandlerError struct {
	Method string
	URI    string
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("no handler found for uri [%s] and method [%s]", e.URI, e.Method)
}

func (e *NoHandlerError) StatusCode() int {
	return http.StatusBadRequest
}

// MethodNotAllowedError is returned when a path exists but not for the
// requested method.
type MethodNotAllowedError struct {
	Method  string
	URI     string
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("Incorrect HTTP method for uri [%s] and method [%s], allowed: %v", e.URI, e.Method, e.Allowed)
}

func (e *MethodNotAllowedError) StatusCode() int {
	return http.StatusMethodNotAllowed
}

// InternalError wraps a failure that is not the client's fault.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) StatusCode() int {
	return http.StatusInternalServerError
}

// suppressedError is a primary error carrying the errors that were hit and
// recovered from after it.
type suppressedError struct {
	err        error
	suppressed []error
}

func (e *suppressedError) Error() string {
	return e.err.Error()
}

func (e *suppressedError) Unwrap() []error {
	return append([]error{e.err}, e.suppressed...)
}

// useOrSuppress returns second when first is nil, otherwise first with
// second recorded as suppressed.
func useOrSuppress(first, second error) error {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	if s, ok := first.(*suppressedError); ok {
		return &suppressedError{err: s.err, suppressed: append(append([]error{}, s.suppressed...), second)}
	}
	return &suppressedError{err: first, suppressed: []error{second}}
}

// primary returns the error a suppression chain started with.
func primary(err error) error {
	if s, ok := err.(*suppressedError); ok {
		return s.err
	}
	return err
}

// suppressed returns the errors recorded after the primary one.
func suppressed(err error) []error {
	if s, ok := err.(*suppressedError); ok {
		return s.suppressed
	}
	return nil
}

// StatusOf returns the HTTP status an error carries, or fallback.
func StatusOf(err error, fallback int) int {
	var coded interface{ StatusCode() int }
	if errors.As(primary(err), &coded) {
		return coded.StatusCode()
	}
	return fallback
}

// errorType names an error for response bodies: an explicit ErrorType when
// the error has one, otherwise the snake_case of its Go type name.
func errorType(err error) string {
	if typed, ok := err.(interface{ ErrorType() string }); ok {
		return typed.ErrorType()
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.PkgPath() == "errors" || t.PkgPath() == "fmt" || t.Name() == "" {
		return "exception"
	}
	return strcase.SnakeCase(t.Name())
}
