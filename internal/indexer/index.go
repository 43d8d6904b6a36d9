package indexer

import (
	"compress/gzip"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// maxNestedLevels raises the decoder's default object-nesting ceiling per
// §4.5/§9: the default (about 32 levels in fxamacker/cbor) is far below what
// a large flat array of entries can trip if the decoder counts array
// elements as nesting depth under adversarial-sized inputs.
const maxNestedLevels = 4096

var encMode = mustEncMode()
var decMode = mustDecMode()

func mustEncMode() cbor.EncMode {
	mode, err := cbor.EncOptions{}.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}

func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{MaxNestedLevels: maxNestedLevels}.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}

// Index is the in-memory search structure §4.5 builds and §4.6 restores.
// It is a flat slice of entries; the equality filter and the sort orders are
// applied by scanning and sorting on each Search call — nothing here requires a dedicated
// full-text engine, since cue text is short and substring/term matching
// over a few hundred thousand entries is fast enough on one thread.
type Index struct {
	entries []Entry
}

// New returns an empty Index ready for Insert.
func New() *Index {
	return &Index{}
}

// Insert adds one entry. Order of insertion is preserved in entries but not
// relied upon by Search, which always sorts explicitly.
func (idx *Index) Insert(e Entry) {
	idx.entries = append(idx.entries, e)
}

// Len reports the number of entries currently held.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// SortField selects how Search orders results.
type SortField string

const (
	SortRelevance SortField = "relevance"
	SortPublished SortField = "episodePublishedUnixTimestamp"
)

// SortOrder selects ascending or descending.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// SearchOptions parameterizes one Search call (§4.6's request shape).
type SearchOptions struct {
	Query      string
	EpisodeIDs []string // equality pre-filter on SequentialEpisodeIDAsString; empty means no filter
	SortBy     SortField
	SortOrder  SortOrder
	Limit      int
	Offset     int
}

// Hit is one scored result.
type Hit struct {
	Entry Entry
	Score float64
}

// Search runs a case-insensitive substring match over Text, applies the
// optional episode-id filter, sorts per opts, and paginates. It returns the
// page of hits plus the total match count before pagination.
func (idx *Index) Search(ctx context.Context, opts SearchOptions) ([]Hit, int) {
	var filterSet map[string]bool
	if len(opts.EpisodeIDs) > 0 {
		filterSet = make(map[string]bool, len(opts.EpisodeIDs))
		for _, id := range opts.EpisodeIDs {
			filterSet[id] = true
		}
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))

	var matches []Hit
	for _, e := range idx.entries {
		if filterSet != nil && !filterSet[e.SequentialEpisodeIDAsString] {
			continue
		}
		score, ok := scoreEntry(e, query)
		if !ok {
			continue
		}
		matches = append(matches, Hit{Entry: e, Score: score})
	}

	total := len(matches)
	sortHits(matches, opts.SortBy, opts.SortOrder)

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matches) {
		return []Hit{}, total
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], total
}

// scoreEntry reports whether e matches query and, if so, a relevance score.
// An empty query matches everything with a neutral score, which lets
// episode-id-filtered "browse this episode's transcript" requests work
// without forcing a query term.
func scoreEntry(e Entry, query string) (float64, bool) {
	if query == "" {
		return 1, true
	}
	text := strings.ToLower(e.Text)
	count := strings.Count(text, query)
	if count == 0 {
		return 0, false
	}
	// More occurrences and a shorter surrounding cue both indicate a more
	// relevant hit; this is a simple score, not a BM25 implementation.
	return float64(count) / float64(len(text)+1), true
}

// sortHits orders matches in place by opts.SortBy/opts.SortOrder, breaking
// ties by Entry.ID ascending (§4.6 "ties broken by id ascending").
func sortHits(matches []Hit, field SortField, order SortOrder) {
	desc := order == OrderDesc
	less := func(i, j int) bool {
		a, b := matches[i], matches[j]
		var primaryLess, primaryEqual bool
		switch field {
		case SortPublished:
			primaryLess = a.Entry.EpisodePublishedUnixTimestamp < b.Entry.EpisodePublishedUnixTimestamp
			primaryEqual = a.Entry.EpisodePublishedUnixTimestamp == b.Entry.EpisodePublishedUnixTimestamp
		default: // SortRelevance
			primaryLess = a.Score < b.Score
			primaryEqual = a.Score == b.Score
		}
		if !primaryEqual {
			if desc {
				return !primaryLess
			}
			return primaryLess
		}
		return a.Entry.ID < b.Entry.ID
	}
	sort.SliceStable(matches, less)
}

// Serialize writes the index as a length-prefixed sequence of individually
// CBOR-encoded entries, gzip-compressed, directly to w. Each Encode call
// only ever holds one entry in memory, so this never materializes the
// index as a single string or byte slice regardless of entry count (§4.5,
// §9).
func (idx *Index) Serialize(w io.Writer) error {
	gz := gzip.NewWriter(w)
	enc := encMode.NewEncoder(gz)

	if err := enc.Encode(int64(len(idx.entries))); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encoding index header")
	}
	for _, e := range idx.entries {
		if err := enc.Encode(e); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encoding index entry")
		}
	}
	if err := gz.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "flushing index stream")
	}
	return nil
}

// Deserialize reads an index previously written by Serialize, streaming
// decode calls rather than reading the whole decompressed payload into one
// buffer first.
func Deserialize(r io.Reader) (*Index, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInputInvariantViolation, "opening gzip index stream")
	}
	defer gz.Close()

	dec := decMode.NewDecoder(gz)

	var count int64
	if err := dec.Decode(&count); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInputInvariantViolation, "decoding index header")
	}

	idx := &Index{entries: make([]Entry, 0, count)}
	for i := int64(0); i < count; i++ {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInputInvariantViolation, "decoding index entry")
		}
		idx.entries = append(idx.entries, e)
	}
	return idx, nil
}
