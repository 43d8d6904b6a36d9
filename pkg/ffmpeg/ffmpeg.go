package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	// Check ffmpeg
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}

	// Check ffprobe
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}

	return nil
}

// SplitIntoChunks segments a local audio file into a sequence of overlapping
// chunks suitable for independent transcription. Each chunk after the first
// begins options.ChunkOverlap before the nominal boundary, so a transcription
// provider's output can be stitched back together by discarding the
// duplicated overlap region at each seam. The caller owns cleanup of the
// returned chunk files.
func (f *FFmpeg) SplitIntoChunks(ctx context.Context, input string, options ProcessingOptions) ([]Chunk, error) {
	if err := f.ValidateAudioFile(ctx, input); err != nil {
		return nil, err
	}

	metadata, err := f.GetMetadata(ctx, input)
	if err != nil {
		return nil, err
	}

	totalDuration := time.Duration(metadata.Duration * float64(time.Second))
	if options.MaxDuration > 0 && totalDuration > options.MaxDuration {
		return nil, fmt.Errorf("%w: duration %.1fs exceeds limit %.1fs",
			ErrAudioTooLong, metadata.Duration, options.MaxDuration.Seconds())
	}

	if options.ChunkDuration <= 0 {
		options.ChunkDuration = DefaultProcessingOptions().ChunkDuration
	}

	ext := audioExt(input)
	var chunks []Chunk
	index := 0

	for nominalStart := time.Duration(0); nominalStart < totalDuration; nominalStart += options.ChunkDuration {
		start := nominalStart
		if index > 0 {
			start -= options.ChunkOverlap
			if start < 0 {
				start = 0
			}
		}

		end := nominalStart + options.ChunkDuration
		if end > totalDuration {
			end = totalDuration
		}
		duration := end - start
		if duration <= 0 {
			break
		}

		outPath, err := os.CreateTemp(options.TempDir, fmt.Sprintf("chunk_%03d_*%s", index, ext))
		if err != nil {
			cleanupChunks(chunks)
			return nil, NewProcessingError("temp_file_creation", input, err, "")
		}
		chunkPath := outPath.Name()
		outPath.Close()

		args := []string{
			"-ss", formatSeconds(start),
			"-i", input,
			"-t", formatSeconds(duration),
			"-c", "copy",
			"-y",
			chunkPath,
		}

		cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			os.Remove(chunkPath)
			cleanupChunks(chunks)
			return nil, NewProcessingError("chunk_split", input, err, stderr.String())
		}

		chunks = append(chunks, Chunk{
			Index:    index,
			Path:     chunkPath,
			Start:    start,
			Duration: duration,
		})
		index++
	}

	return chunks, nil
}

func cleanupChunks(chunks []Chunk) {
	for _, c := range chunks {
		os.Remove(c.Path)
	}
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func audioExt(p string) string {
	idx := strings.LastIndex(p, ".")
	if idx < 0 {
		return ".mp3"
	}
	return p[idx:]
}

// downloadToTemp downloads a URL to a temporary file, used when an audio
// processing step is handed a remote URL instead of a local path.
func (f *FFmpeg) downloadToTemp(ctx context.Context, url, tempDir string) (string, func() error, error) {
	// Create temporary file
	tempFile, err := os.CreateTemp(tempDir, "audio_download_*")
	if err != nil {
		return "", nil, NewProcessingError("temp_file_creation", url, err, "")
	}

	cleanup := func() error {
		return os.Remove(tempFile.Name())
	}

	// Create HTTP request with context
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		if cleanupErr := cleanup(); cleanupErr != nil {
			log.Printf("Failed to cleanup on error: %v", cleanupErr)
		}
		return "", nil, err
	}

	// Set user agent to avoid blocking
	req.Header.Set("User-Agent", "ingest-platform/1.0")

	// Download file
	client := &http.Client{Timeout: f.timeout}
	resp, err := client.Do(req)
	if err != nil {
		if cleanupErr := cleanup(); cleanupErr != nil {
			log.Printf("Failed to cleanup on error: %v", cleanupErr)
		}
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if cleanupErr := cleanup(); cleanupErr != nil {
			log.Printf("Failed to cleanup on error: %v", cleanupErr)
		}
		return "", nil, fmt.Errorf("failed to download audio: HTTP %d", resp.StatusCode)
	}

	// Copy response body to temp file
	_, err = io.Copy(tempFile, resp.Body)
	tempFile.Close()
	if err != nil {
		if cleanupErr := cleanup(); cleanupErr != nil {
			log.Printf("Failed to cleanup on error: %v", cleanupErr)
		}
		return "", nil, err
	}

	return tempFile.Name(), cleanup, nil
}
