package search

import (
	"context"
	"sync"
	"time"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	"github.com/killallgit/ingest-platform/internal/indexer"
	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// Response is the shape returned to every search call (§4.6).
type Response struct {
	Hits            []Hit `json:"hits"`
	Total           int   `json:"total"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// Hit mirrors one indexer.Hit in the wire format.
type Hit struct {
	Entry indexer.Entry `json:"entry"`
	Score float64       `json:"score"`
}

// Engine restores the persisted index at most once per process and answers
// Search calls against the cached handle. It is safe for concurrent use.
type Engine struct {
	blobs blobstore.Store

	mu    sync.RWMutex
	index *indexer.Index
	err   error
}

// NewEngine builds an Engine backed by blobs. No index is loaded yet —
// restoration happens lazily on the first Search or HealthCheck call.
func NewEngine(blobs blobstore.Store) *Engine {
	return &Engine{blobs: blobs}
}

// ensureLoaded restores the index from the blob store exactly once,
// matching §4.6's cold-start contract: concurrent callers during the first
// restoration all wait on the same load rather than each starting their own.
func (e *Engine) ensureLoaded(ctx context.Context) (*indexer.Index, error) {
	e.mu.RLock()
	if e.index != nil || e.err != nil {
		idx, err := e.index, e.err
		e.mu.RUnlock()
		return idx, err
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil || e.err != nil {
		return e.index, e.err
	}

	reader, err := e.blobs.GetReader(ctx, blobstore.IndexKey)
	if err != nil {
		e.err = apperrors.IndexUnavailable("index blob missing", err)
		return nil, e.err
	}
	defer reader.Close()

	idx, err := indexer.Deserialize(reader)
	if err != nil {
		e.err = apperrors.IndexUnavailable("index blob corrupt", err)
		return nil, e.err
	}

	e.index = idx
	return e.index, nil
}

// Search restores the index if it is not loaded yet and runs req against it.
// It does not look at req's health-check flag; health probes go through
// HealthCheck instead.
func (e *Engine) Search(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	idx, err := e.ensureLoaded(ctx)
	if err != nil {
		return Response{}, err
	}

	hits, total := idx.Search(ctx, req.Normalize())
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{Entry: h.Entry, Score: h.Score}
	}

	return Response{
		Hits:             out,
		Total:            total,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// HealthCheck restores the index (so a health probe does exercise cold
// start) but always returns an empty result rather than running a query —
// §4.6: "health-check semantics" intentionally skip scoring.
func (e *Engine) HealthCheck(ctx context.Context) (Response, error) {
	start := time.Now()
	if _, err := e.ensureLoaded(ctx); err != nil {
		return Response{}, err
	}
	return Response{Hits: []Hit{}, Total: 0, ProcessingTimeMs: time.Since(start).Milliseconds()}, nil
}
