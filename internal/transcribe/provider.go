// Package transcribe implements the audio splitter + transcriber stage
// (§4.4): probing and chunking source audio, dispatching chunks to one of
// three transcription providers, and stitching the results back into a
// single SRT transcript.
package transcribe

import (
	"context"

	"github.com/killallgit/ingest-platform/pkg/transcript"
)

// Kind is the closed set of transcription providers a Provider can be
// (§4.4, §9 "provider polymorphism as a closed tagged variant").
type Kind string

const (
	KindCloudA Kind = "cloud_a" // AssemblyAI-style: submit + poll against a cloud API
	KindCloudB Kind = "cloud_b" // submit, then fetch a result URL once it's ready
	KindLocal  Kind = "local"   // on-box model invoked as a subprocess
)

// Provider transcribes one audio chunk into a parsed transcript. Every
// variant returns the same shape so the processor never branches on Kind
// after construction time.
type Provider interface {
	Kind() Kind
	TranscribeChunk(ctx context.Context, audioPath string) (*transcript.Transcript, error)
	HealthCheck(ctx context.Context) error
}

// Options configures provider construction, mirroring
// pkg/config.TranscriptionConfig so cmd/ can build a Provider directly from
// the loaded config.
type Options struct {
	Provider     string
	APIKey       string
	PollInterval int64 // seconds; avoids importing time for the zero-value check
	TimeoutSecs  int64
	MaxRetries   int
	LocalModel   string
	LocalBinPath string
}

// New builds the Provider selected by opts.Provider.
func New(opts Options) (Provider, error) {
	switch Kind(opts.Provider) {
	case KindCloudA:
		return newCloudAProvider(opts), nil
	case KindCloudB:
		return newCloudBProvider(opts), nil
	case KindLocal:
		return newLocalProvider(opts), nil
	default:
		return nil, unsupportedProviderError(opts.Provider)
	}
}
