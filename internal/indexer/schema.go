// Package indexer implements the SRT indexer (C5): parsing transcripts into
// searchable segment entries and building the persisted search index that
// the search engine (internal/search) restores at cold start.
package indexer

// Entry is one searchable unit, emitted one per SRT cue (§3, §4.5). Field
// tags use small integer keys so the CBOR encoding stays length-prefixed
// and compact rather than re-spelling field names on every entry.
type Entry struct {
	ID                          string `cbor:"1,keyasint"`
	Text                        string `cbor:"2,keyasint"`
	SequentialEpisodeIDAsString string `cbor:"3,keyasint"`
	StartTimeMs                 int64  `cbor:"4,keyasint"`
	EndTimeMs                   int64  `cbor:"5,keyasint"`
	EpisodePublishedUnixTimestamp int64 `cbor:"6,keyasint"`
}
