package rest

import (
	"errors"
	"net/http"

	"github.com/samber/lo"
)

// Response is a fully rendered HTTP response.
type Response struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

// errorDocument renders err as the error body clients receive. Wrapped
// causes are only included with error_trace.
func errorDocument(err error, status int, trace bool) map[string]any {
	p := primary(err)
	body := causeObject(p, trace)
	body["root_cause"] = []any{causeObject(rootCause(p), false)}
	if sup := suppressed(err); len(sup) > 0 {
		body["suppressed"] = lo.Map(sup, func(e error, _ int) any {
			return causeObject(e, trace)
		})
	}
	return map[string]any{
		"error":  body,
		"status": status,
	}
}

func causeObject(err error, trace bool) map[string]any {
	obj := map[string]any{
		"type":   errorType(err),
		"reason": err.Error(),
	}
	if trace {
		if cause := unwrapOne(err); cause != nil {
			obj["caused_by"] = causeObject(cause, true)
		}
	}
	return obj
}

// unwrapOne returns the next error in the chain, the first one for errors
// that wrap several.
func unwrapOne(err error) error {
	if next := errors.Unwrap(err); next != nil {
		return next
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := multi.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}

// rootCause follows wrapping down to the innermost error.
func rootCause(err error) error {
	for {
		next := unwrapOne(err)
		if next == nil {
			return err
		}
		err = next
	}
}
