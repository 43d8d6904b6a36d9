// Package search implements the search engine (C6): lazy one-time index
// restoration on cold start, and ranked, sortable, filterable query
// handling over the restored internal/indexer.Index.
package search

import (
	"strconv"
	"strings"

	"github.com/killallgit/ingest-platform/internal/indexer"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Request is the normalized shape of one search call, built from either a
// GET query string or a POST JSON body (§4.6's request shape).
type Request struct {
	Query             string   `json:"query" form:"query"`
	Limit             int      `json:"limit" form:"limit"`
	Offset            int      `json:"offset" form:"offset"`
	SortBy            string   `json:"sortBy" form:"sortBy"`
	SortOrder         string   `json:"sortOrder" form:"sortOrder"`
	EpisodeIDs        []string `json:"episodeIds" form:"episodeIds"`
	IsHealthCheckOnly bool     `json:"isHealthCheckOnly" form:"isHealthCheckOnly"`
}

// Normalize fills in defaults and clamps bounds, returning the options
// Index.Search expects.
func (r Request) Normalize() indexer.SearchOptions {
	limit := r.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	sortBy := indexer.SortField(r.SortBy)
	if sortBy != indexer.SortPublished {
		sortBy = indexer.SortRelevance
	}

	order := indexer.SortOrder(strings.ToLower(r.SortOrder))
	if order != indexer.OrderAsc {
		order = indexer.OrderDesc
	}

	return indexer.SearchOptions{
		Query:      r.Query,
		EpisodeIDs: r.EpisodeIDs,
		SortBy:     sortBy,
		SortOrder:  order,
		Limit:      limit,
		Offset:     r.Offset,
	}
}

// requestFromQuery builds a Request from GET query parameters, since gin's
// form binding doesn't parse repeated episodeIds[] params the way this API
// needs (comma-separated, matching the POST body's array shape).
func requestFromQuery(get func(string) string) Request {
	limit, _ := strconv.Atoi(get("limit"))
	offset, _ := strconv.Atoi(get("offset"))

	var episodeIDs []string
	if raw := get("episodeIds"); raw != "" {
		episodeIDs = strings.Split(raw, ",")
	}

	return Request{
		Query:             get("q"),
		Limit:             limit,
		Offset:            offset,
		SortBy:            get("sort"),
		SortOrder:         get("order"),
		EpisodeIDs:        episodeIDs,
		IsHealthCheckOnly: get("healthCheckOnly") == "true",
	}
}
