package rest

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
)

// Route is a path pattern and the methods served on it. Patterns use chi
// syntax, for example /{index}/_search.
type Route struct {
	Method string
	Path   string
}

func NewRoute(method, path string) Route {
	return Route{Method: method, Path: path}
}

var ErrRoutesFrozen = errors.New("routes are frozen")

// Routes maps path patterns to their handler tables. Registration happens
// during startup from a single goroutine; after Freeze the table is only
// read and is safe for concurrent use.
type Routes struct {
	mux    *chi.Mux
	tables map[string]*MethodHandlers
	frozen bool
}

func NewRoutes() *Routes {
	return &Routes{
		mux:    chi.NewMux(),
		tables: map[string]*MethodHandlers{},
	}
}

// Register adds h for route at version.
func (r *Routes) Register(route Route, version versioning.Version, h Handler) (err error) {
	if r.frozen {
		return ErrRoutesFrozen
	}
	table, ok := r.tables[route.Path]
	if !ok {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("invalid route pattern [%s]: %v", route.Path, p)
			}
		}()
		r.mux.Handle(route.Path, http.NotFoundHandler())
		table = NewMethodHandlers(route.Path)
		r.tables[route.Path] = table
	}
	return table.AddMethods(h, version, route.Method)
}

// RegisterHandler adds h for every route at the version h declares.
func (r *Routes) RegisterHandler(h Handler, routes ...Route) error {
	version := handlerVersion(h)
	for _, route := range routes {
		if err := r.Register(route, version, h); err != nil {
			return err
		}
	}
	return nil
}

func (r *Routes) Freeze() {
	r.frozen = true
}

// Find returns the handler table matching path and the path parameters it
// binds, or nil when no pattern matches.
func (r *Routes) Find(path string) (*MethodHandlers, map[string]string) {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) || len(rctx.RoutePatterns) == 0 {
		return nil, nil
	}
	table, ok := r.tables[rctx.RoutePatterns[len(rctx.RoutePatterns)-1]]
	if !ok {
		return nil, nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return table, params
}

// Patterns lists the registered path patterns.
func (r *Routes) Patterns() []string {
	patterns := make([]string, 0, len(r.tables))
	for p := range r.tables {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	return patterns
}

// Pattern returns the registered pattern matching path, or "" when none does.
func (r *Routes) Pattern(path string) string {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) || len(rctx.RoutePatterns) == 0 {
		return ""
	}
	return rctx.RoutePatterns[len(rctx.RoutePatterns)-1]
}
