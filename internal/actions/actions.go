package actions

import (
	"net/http"
	"time"

	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/searchgate/searchgate/internal/rest"
)

// Dependencies are the collaborators the built-in handlers need.
type Dependencies struct {
	Node     NodeInfo
	Catalog  *mediatype.Catalog
	Searcher Searcher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Register adds every built-in handler to routes.
func Register(routes *rest.Routes, deps Dependencies) error {
	if deps.Catalog == nil {
		deps.Catalog = mediatype.Default()
	}
	if deps.Searcher == nil {
		deps.Searcher = EmptySearcher{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if err := routes.RegisterHandler(newRootHandler(deps.Node, deps.Now),
		rest.NewRoute(http.MethodGet, "/"),
		rest.NewRoute(http.MethodHead, "/"),
	); err != nil {
		return err
	}
	if err := registerSearch(routes, deps.Searcher); err != nil {
		return err
	}
	return routes.RegisterHandler(newCatMediaTypesHandler(deps.Catalog),
		rest.NewRoute(http.MethodGet, "/_cat/media_types"),
	)
}
