package actions

import (
	"context"
	"fmt"
	"net/http"

	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/rest"
	"github.com/searchgate/searchgate/internal/util"
)

const (
	paramIndex          = "index"
	paramType           = "type"
	paramQuery          = "q"
	paramFrom           = "from"
	paramSize           = "size"
	paramTimeout        = "timeout"
	paramTotalHitsAsInt = "rest_total_hits_as_int"

	defaultSize = 10

	typesDeprecationMessage = "[types removal] Specifying types in search requests is deprecated."
)

type searchBody struct {
	Query map[string]any `json:"query,omitempty"`
	From  *int           `json:"from,omitempty"`
	Size  *int           `json:"size,omitempty"`
}

type totalHits struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

type searchHit struct {
	Index  string         `json:"_index"`
	Type   string         `json:"_type,omitempty"`
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source,omitempty"`
}

type searchHits struct {
	// Total is a totalHits, or a plain count with rest_total_hits_as_int.
	Total    any         `json:"total"`
	MaxScore *float64    `json:"max_score"`
	Hits     []searchHit `json:"hits"`
}

type searchResponse struct {
	Took     int64      `json:"took"`
	TimedOut bool       `json:"timed_out"`
	Hits     searchHits `json:"hits"`
}

func registerSearch(routes *rest.Routes, searcher Searcher) error {
	if err := routes.RegisterHandler(newSearchHandler(searcher, versioning.Current),
		rest.NewRoute(http.MethodGet, "/_search"),
		rest.NewRoute(http.MethodPost, "/_search"),
		rest.NewRoute(http.MethodGet, "/{index}/_search"),
		rest.NewRoute(http.MethodPost, "/{index}/_search"),
	); err != nil {
		return err
	}
	typed := rest.WrapCompatible(newSearchHandler(searcher, versioning.Compatible),
		rest.ConsumeParams(paramType),
		rest.DeprecationWarning(typesDeprecationMessage),
	)
	return routes.RegisterHandler(typed,
		rest.NewRoute(http.MethodGet, "/{index}/{type}/_search"),
		rest.NewRoute(http.MethodPost, "/{index}/{type}/_search"),
	)
}

func newSearchHandler(searcher Searcher, version versioning.Version) *rest.BaseHandler {
	return &rest.BaseHandler{
		Version: version,
		Prepare: func(req *rest.Request) (rest.Consumer, error) {
			return prepareSearch(searcher, req)
		},
	}
}

func prepareSearch(searcher Searcher, req *rest.Request) (rest.Consumer, error) {
	sreq := SearchRequest{
		Indices: req.ParamAsList(paramIndex),
		Size:    defaultSize,
	}

	if req.HasContent() {
		var body searchBody
		if err := req.DecodeContent(&body); err != nil {
			return nil, err
		}
		sreq.Query = body.Query
		if body.From != nil {
			sreq.From = *body.From
		}
		if body.Size != nil {
			sreq.Size = *body.Size
		}
	}
	if q, ok := req.Param(paramQuery); ok {
		sreq.Query = map[string]any{"query_string": map[string]any{"query": q}}
	}

	var err error
	if sreq.From, err = req.ParamAsInt(paramFrom, sreq.From); err != nil {
		return nil, err
	}
	if sreq.Size, err = req.ParamAsInt(paramSize, sreq.Size); err != nil {
		return nil, err
	}
	if sreq.From < 0 {
		return nil, &rest.IllegalArgumentError{Message: fmt.Sprintf("[from] parameter cannot be negative but was [%d]", sreq.From)}
	}
	if sreq.Size < 0 {
		return nil, &rest.IllegalArgumentError{Message: fmt.Sprintf("[size] parameter cannot be negative, found [%d]", sreq.Size)}
	}
	if v, ok := req.Param(paramTimeout); ok {
		if sreq.Timeout, err = util.ParseTimeValue(v); err != nil {
			return nil, &rest.IllegalArgumentError{Message: err.Error()}
		}
	}
	totalAsInt, err := req.ParamAsBool(paramTotalHitsAsInt, false)
	if err != nil {
		return nil, err
	}
	legacyHits := req.CompatibleVersion() == versioning.Compatible

	return func(ch *rest.Channel) error {
		ctx := ch.Request().Context()
		if sreq.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, sreq.Timeout)
			defer cancel()
		}
		res, err := searcher.Search(ctx, sreq)
		if err != nil {
			return err
		}
		return ch.SendObject(http.StatusOK, renderSearch(res, totalAsInt, legacyHits))
	}, nil
}

// renderSearch builds the response body. Compatible version responses carry
// the single mapping type every document has.
func renderSearch(res *SearchResult, totalAsInt, legacyHits bool) searchResponse {
	hits := make([]searchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := searchHit{Index: h.Index, ID: h.ID, Score: h.Score, Source: h.Source}
		if legacyHits {
			hit.Type = "_doc"
		}
		hits = append(hits, hit)
	}

	var total any = totalHits{Value: res.Total, Relation: res.TotalRelation}
	if totalAsInt {
		total = res.Total
	}
	return searchResponse{
		Took:     res.Took.Milliseconds(),
		TimedOut: res.TimedOut,
		Hits: searchHits{
			Total:    total,
			MaxScore: res.MaxScore,
			Hits:     hits,
		},
	}
}
