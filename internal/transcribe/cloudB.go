package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
	"github.com/killallgit/ingest-platform/pkg/transcript"
)

// cloudBProvider transcribes by submitting the chunk to a job-queue style
// API and polling until the job reports a result URL, then fetching that
// URL with pkg/transcript.Fetcher. Grounded on the existing Fetcher, which
// was already written for exactly this result-URL shape.
type cloudBProvider struct {
	httpClient   *http.Client
	fetcher      *transcript.Fetcher
	apiKey       string
	pollInterval time.Duration
	timeout      time.Duration
	baseURL      string
}

func newCloudBProvider(opts Options) *cloudBProvider {
	poll := time.Duration(opts.PollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	timeout := time.Duration(opts.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &cloudBProvider{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		fetcher:      transcript.NewFetcher(transcript.DefaultFetchOptions()),
		apiKey:       opts.APIKey,
		pollInterval: poll,
		timeout:      timeout,
		baseURL:      "https://api.transcription-provider.example/v1",
	}
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status    string `json:"status"` // "queued", "processing", "completed", "failed"
	ResultURL string `json:"result_url"`
	Error     string `json:"error"`
}

func (p *cloudBProvider) Kind() Kind { return KindCloudB }

func (p *cloudBProvider) TranscribeChunk(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	jobID, err := p.submit(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(p.timeout)
	for {
		status, err := p.poll(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case "completed":
			result, err := p.fetcher.Fetch(ctx, status.ResultURL)
			if err != nil {
				return nil, apperrors.TransientIO("cloudB.fetch", err)
			}
			parser := transcript.NewParser()
			return parser.Parse(result.Content, result.Format)
		case "failed":
			return nil, apperrors.New(apperrors.ErrCodeUpstreamFailure, "cloudB job failed: "+status.Error)
		}
		if time.Now().After(deadline) {
			return nil, apperrors.New(apperrors.ErrCodeResourceExhausted, "cloudB job timed out waiting for completion")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}
}

func (p *cloudBProvider) submit(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", apperrors.TransientIO("cloudB.open", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "cloudB.submit")
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "cloudB.submit")
	}
	if err := mw.Close(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "cloudB.submit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transcripts", &buf)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "cloudB.submit")
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", apperrors.TransientIO("cloudB.submit", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", apperrors.New(apperrors.ErrCodeUpstreamFailure, fmt.Sprintf("cloudB submit: status %d", resp.StatusCode))
	}

	var sub submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return "", apperrors.InvariantViolation("cloudB", "malformed submit response: "+err.Error())
	}
	return sub.JobID, nil
}

func (p *cloudBProvider) poll(ctx context.Context, jobID string) (*statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/transcripts/"+jobID, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "cloudB.poll")
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.TransientIO("cloudB.poll", err)
	}
	defer resp.Body.Close()

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, apperrors.InvariantViolation("cloudB", "malformed status response: "+err.Error())
	}
	return &status, nil
}

func (p *cloudBProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "cloudB.healthCheck")
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.TransientIO("cloudB.healthCheck", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.New(apperrors.ErrCodeUpstreamFailure, fmt.Sprintf("cloudB health check: status %d", resp.StatusCode))
	}
	return nil
}
