package actions

//go:generate mockgen -source=searcher.go -destination=mock_searcher.go -package=actions

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// SearchRequest is a search as the handlers hand it to a Searcher.
type SearchRequest struct {
	Indices []string
	// Query is the decoded "query" section of the body, or a query_string
	// query built from the q parameter.
	Query   map[string]any
	From    int
	Size    int
	Timeout time.Duration
}

type Hit struct {
	Index  string
	ID     string
	Score  float64
	Source map[string]any
}

type SearchResult struct {
	Took     time.Duration
	TimedOut bool
	Total    int64
	// TotalRelation is "eq" or "gte".
	TotalRelation string
	MaxScore      *float64
	Hits          []Hit
}

// Searcher executes searches. Query execution lives outside this service.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
}

// IndexNotFoundError is returned by a Searcher for a missing index.
type IndexNotFoundError struct {
	Index string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("no such index [%s]", e.Index)
}

func (e *IndexNotFoundError) StatusCode() int {
	return http.StatusNotFound
}

func (e *IndexNotFoundError) ErrorType() string {
	return "index_not_found_exception"
}

// EmptySearcher matches nothing.
type EmptySearcher struct{}

func (EmptySearcher) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	return &SearchResult{TotalRelation: "eq", Hits: []Hit{}}, nil
}
