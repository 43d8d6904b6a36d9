package transcribe

import (
	"bytes"
	"context"
	"os/exec"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
	"github.com/killallgit/ingest-platform/pkg/transcript"
)

// localProvider transcribes by shelling out to an on-box model binary,
// matching pkg/ffmpeg's exec.CommandContext wrapping style. The binary is
// expected to write SRT to stdout given an input path and model name.
type localProvider struct {
	binPath string
	model   string
}

func newLocalProvider(opts Options) *localProvider {
	binPath := opts.LocalBinPath
	if binPath == "" {
		binPath = "whisper"
	}
	return &localProvider{binPath: binPath, model: opts.LocalModel}
}

func (p *localProvider) Kind() Kind { return KindLocal }

func (p *localProvider) TranscribeChunk(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	args := []string{"--model", p.model, "--output-format", "srt", "--output-to-stdout", audioPath}
	cmd := exec.CommandContext(ctx, p.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstreamFailure, "local transcription failed: "+stderr.String())
	}

	parser := transcript.NewParser()
	return parser.Parse(stdout.String(), transcript.FormatSRT)
}

func (p *localProvider) HealthCheck(ctx context.Context) error {
	if _, err := exec.LookPath(p.binPath); err != nil {
		return apperrors.ConfigError("transcription.local_model", "binary not found: "+p.binPath)
	}
	return nil
}
