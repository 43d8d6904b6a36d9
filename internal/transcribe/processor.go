package transcribe

import (
	"context"
	"errors"
	"log"
	"os"
	"sort"
	"time"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	"github.com/killallgit/ingest-platform/internal/corrections"
	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
	"github.com/killallgit/ingest-platform/pkg/ffmpeg"
	"github.com/killallgit/ingest-platform/pkg/transcript"
)

// Result is the explicit outcome C4 hands the orchestrator for one episode,
// replacing an event-emitter with a plain struct per §9's redesign note.
type Result struct {
	FeedID        string
	FileKey       string
	Skipped       bool // transcript already present and non-empty
	TranscriptKey string
	Corrections   corrections.Report
}

// ProcessorOptions configures one Processor.
type ProcessorOptions struct {
	FFmpegPath    string
	FFprobePath   string
	FFmpegTimeout time.Duration
	ChunkDuration time.Duration
	ChunkOverlap  time.Duration
	MaxDuration   time.Duration
	TempDir       string
	Force         bool // reprocess even if a transcript already exists
}

// Processor runs the C4 algorithm: probe, split with overlap, dispatch each
// chunk to a Provider, rebase and stitch the chunk transcripts, apply
// spelling corrections, and persist the result as SRT.
type Processor struct {
	blobs    blobstore.Store
	provider Provider
	corr     *corrections.Table
	ff       *ffmpeg.FFmpeg
	opts     ProcessorOptions
}

// NewProcessor builds a Processor. corr may be nil, meaning no corrections
// table is applied (matching corrections.Load's "missing site file is
// non-fatal" behavior one level up).
func NewProcessor(blobs blobstore.Store, provider Provider, corr *corrections.Table, opts ProcessorOptions) *Processor {
	return &Processor{
		blobs:    blobs,
		provider: provider,
		corr:     corr,
		ff:       ffmpeg.New(opts.FFmpegPath, opts.FFprobePath, opts.FFmpegTimeout),
		opts:     opts,
	}
}

// ProcessEpisode transcribes one episode's audio (already in the blob store
// at audioKey) and writes the stitched, corrected SRT to its transcript key.
func (p *Processor) ProcessEpisode(ctx context.Context, feedID, fileKey, audioKey string) (Result, error) {
	result := Result{FeedID: feedID, FileKey: fileKey}
	transcriptKey := blobstore.TranscriptKey(feedID, fileKey)
	result.TranscriptKey = transcriptKey

	if !p.opts.Force {
		if size, err := p.blobs.Size(ctx, transcriptKey); err == nil && size > 0 {
			result.Skipped = true
			return result, nil
		}
	}

	if err := p.ff.ValidateBinaries(); err != nil {
		return result, apperrors.ConfigError("processing.ffmpeg_path", err.Error())
	}

	localAudio, cleanupAudio, err := p.downloadToLocal(ctx, audioKey)
	if err != nil {
		return result, err
	}
	defer cleanupAudio()

	chunks, err := p.ff.SplitIntoChunks(ctx, localAudio, ffmpeg.ProcessingOptions{
		ChunkDuration: p.opts.ChunkDuration,
		ChunkOverlap:  p.opts.ChunkOverlap,
		MaxDuration:   p.opts.MaxDuration,
		TempDir:       p.opts.TempDir,
	})
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrCodeUpstreamFailure, "splitting audio into chunks")
	}
	defer cleanupChunkFiles(chunks)

	stitched, err := p.transcribeAndStitch(ctx, chunks)
	if err != nil {
		return result, err
	}

	text := stitched.ToSRT()
	var report corrections.Report
	if p.corr != nil {
		corrected, r := p.corr.Apply(text)
		text = corrected
		report = r
	}
	result.Corrections = report

	if err := p.blobs.Put(ctx, transcriptKey, []byte(text)); err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "writing transcript")
	}

	return result, nil
}

func (p *Processor) downloadToLocal(ctx context.Context, audioKey string) (string, func(), error) {
	data, err := p.blobs.Get(ctx, audioKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", func() {}, apperrors.NotFound("transcribe.audio", audioKey)
		}
		return "", func() {}, apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "fetching audio")
	}

	f, err := os.CreateTemp(p.opts.TempDir, "transcribe_src_*.mp3")
	if err != nil {
		return "", func() {}, apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "creating temp audio file")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", func() {}, apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "writing temp audio file")
	}
	f.Close()

	path := f.Name()
	return path, func() { os.Remove(path) }, nil
}

func cleanupChunkFiles(chunks []ffmpeg.Chunk) {
	for _, c := range chunks {
		os.Remove(c.Path)
	}
}

// transcribeAndStitch dispatches every chunk to the provider, rebases each
// chunk's cue timestamps to the chunk's absolute offset in the source
// audio, and merges the results — discarding cues that start before the
// end of the previous chunk (inside the overlap) so the same speech isn't
// transcribed twice at the seam (§4.4 "stitch", favoring the earlier
// chunk's cue when both cover the same span).
func (p *Processor) transcribeAndStitch(ctx context.Context, chunks []ffmpeg.Chunk) (*transcript.Transcript, error) {
	merged := &transcript.Transcript{Format: transcript.FormatSRT}

	var lastChunkEnd time.Duration
	for _, chunk := range chunks {
		chunkTranscript, err := p.provider.TranscribeChunk(ctx, chunk.Path)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstreamFailure, "transcribing chunk")
		}

		for _, seg := range chunkTranscript.Segments {
			absStart := chunk.Start + seg.Start
			absEnd := chunk.Start + seg.End

			// A cue that starts before the previous chunk's end is inside
			// the overlap window this chunk re-transcribed; the earlier
			// chunk already covered it.
			if absStart < lastChunkEnd {
				continue
			}

			merged.Segments = append(merged.Segments, transcript.Segment{
				Start: absStart,
				End:   absEnd,
				Text:  seg.Text,
			})
		}

		lastChunkEnd = chunk.Start + chunk.Duration
	}

	sort.SliceStable(merged.Segments, func(i, j int) bool {
		return merged.Segments[i].Start < merged.Segments[j].Start
	})

	merged.FullText = merged.ToPlainText()
	if len(merged.Segments) > 0 {
		merged.Duration = merged.Segments[len(merged.Segments)-1].End
	}
	if len(merged.Segments) == 0 {
		log.Printf("[WARN] transcribe: all chunks produced empty transcripts")
	}
	return merged, nil
}
