package transcribe

import (
	"context"
	"os"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
	"github.com/killallgit/ingest-platform/pkg/transcript"
)

// cloudAProvider transcribes via AssemblyAI. TranscribeFromReader blocks
// until the job reaches a terminal status, so this provider needs no
// polling loop of its own (§4.4, grounded on
// AssemblyAI/assemblyai-go-sdk's Transcript type).
type cloudAProvider struct {
	client *aai.Client
}

func newCloudAProvider(opts Options) *cloudAProvider {
	return &cloudAProvider{client: aai.NewClient(opts.APIKey)}
}

func (p *cloudAProvider) Kind() Kind { return KindCloudA }

func (p *cloudAProvider) TranscribeChunk(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, apperrors.TransientIO("cloudA.open", err)
	}
	defer f.Close()

	tr, err := p.client.Transcripts.TranscribeFromReader(ctx, f, nil)
	if err != nil {
		return nil, apperrors.UpstreamFailure("assemblyai", err)
	}
	if tr.Status == "error" {
		msg := "unknown error"
		if tr.Error != nil {
			msg = *tr.Error
		}
		return nil, apperrors.New(apperrors.ErrCodeUpstreamFailure, "assemblyai: "+msg)
	}

	return wordsToTranscript(tr.Words), nil
}

func (p *cloudAProvider) HealthCheck(ctx context.Context) error {
	params := &aai.ListTranscriptParams{}
	if _, err := p.client.Transcripts.List(ctx, params); err != nil {
		return apperrors.UpstreamFailure("assemblyai", err)
	}
	return nil
}

// wordsToTranscript builds a Transcript out of AssemblyAI's flat word list
// by grouping words into sentence-scale segments, since the SDK's sentence
// and utterance arrays are only populated when those models are explicitly
// requested and this provider doesn't request them.
func wordsToTranscript(words []aai.TranscriptWord) *transcript.Transcript {
	const segmentSize = 12 // words per segment, a readable cue length

	t := &transcript.Transcript{Format: transcript.FormatSRT}
	var seg transcript.Segment
	var count int

	flush := func() {
		if count == 0 {
			return
		}
		t.Segments = append(t.Segments, seg)
		seg = transcript.Segment{}
		count = 0
	}

	for _, w := range words {
		if w.Text == nil || w.Start == nil || w.End == nil {
			continue
		}
		if count == 0 {
			seg.Start = time.Duration(*w.Start) * time.Millisecond
		}
		if seg.Text != "" {
			seg.Text += " "
		}
		seg.Text += *w.Text
		seg.End = time.Duration(*w.End) * time.Millisecond
		count++
		if count >= segmentSize {
			flush()
		}
	}
	flush()

	t.FullText = t.ToPlainText()
	if len(t.Segments) > 0 {
		t.Duration = t.Segments[len(t.Segments)-1].End
	}
	return t
}
