package ffmpeg

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)
	if ffmpeg.ffmpegPath != "ffmpeg" {
		t.Errorf("Expected ffmpegPath to be 'ffmpeg', got %s", ffmpeg.ffmpegPath)
	}
	if ffmpeg.ffprobePath != "ffprobe" {
		t.Errorf("Expected ffprobePath to be 'ffprobe', got %s", ffmpeg.ffprobePath)
	}
	if ffmpeg.timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", ffmpeg.timeout)
	}
}

func TestDefaultProcessingOptions(t *testing.T) {
	opts := DefaultProcessingOptions()
	if opts.ChunkDuration != 10*time.Minute {
		t.Errorf("Expected ChunkDuration to be 10m, got %v", opts.ChunkDuration)
	}
	if opts.ChunkOverlap != 30*time.Second {
		t.Errorf("Expected ChunkOverlap to be 30s, got %v", opts.ChunkOverlap)
	}
	if opts.MaxDuration != 6*time.Hour {
		t.Errorf("Expected MaxDuration to be 6h, got %v", opts.MaxDuration)
	}
	if opts.TempDir != "/tmp" {
		t.Errorf("Expected TempDir to be '/tmp', got %s", opts.TempDir)
	}
}

func TestAudioExt(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/tmp/audio.mp3", ".mp3"},
		{"/tmp/audio.WAV", ".WAV"},
		{"noextension", ".mp3"},
	}

	for _, tt := range tests {
		if got := audioExt(tt.path); got != tt.expected {
			t.Errorf("audioExt(%q) = %q, expected %q", tt.path, got, tt.expected)
		}
	}
}

// Integration test - only runs if ffmpeg/ffprobe are available
func TestValidateBinaries(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)

	// This test will pass if ffmpeg/ffprobe are installed, skip otherwise
	err := ffmpeg.ValidateBinaries()
	if err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}
}

// Test metadata extraction with real audio file
func TestGetMetadataWithRealAudio(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)

	// Skip if binaries not available
	if err := ffmpeg.ValidateBinaries(); err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}

	// Test with 5-second clip
	testFile := filepath.Join("..", "..", "data", "tests", "clips", "test-5s.mp3")
	ctx := context.Background()

	metadata, err := ffmpeg.GetMetadata(ctx, testFile)
	if err != nil {
		t.Fatalf("Failed to get metadata: %v", err)
	}

	// Validate basic metadata
	if metadata.Duration <= 0 {
		t.Errorf("Expected positive duration, got %f", metadata.Duration)
	}
	if metadata.Duration < 4 || metadata.Duration > 6 {
		t.Errorf("Expected duration around 5 seconds, got %f", metadata.Duration)
	}
	if metadata.Format == "" {
		t.Errorf("Expected format to be set, got empty string")
	}
	if metadata.SampleRate <= 0 {
		t.Errorf("Expected positive sample rate, got %d", metadata.SampleRate)
	}

	t.Logf("Metadata: Duration=%.2fs, Format=%s, SampleRate=%d, Channels=%d, Bitrate=%d",
		metadata.Duration, metadata.Format, metadata.SampleRate, metadata.Channels, metadata.Bitrate)
}

// Test audio file validation
func TestValidateAudioFile(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)

	// Skip if binaries not available
	if err := ffmpeg.ValidateBinaries(); err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}

	testFile := filepath.Join("..", "..", "data", "tests", "clips", "test-5s.mp3")
	ctx := context.Background()

	err := ffmpeg.ValidateAudioFile(ctx, testFile)
	if err != nil {
		t.Errorf("Expected valid audio file, got error: %v", err)
	}
}

// Test chunk splitting on a clip short enough to fit in a single chunk
func TestSplitIntoChunksSingleChunk(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)

	if err := ffmpeg.ValidateBinaries(); err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}

	testFile := filepath.Join("..", "..", "data", "tests", "clips", "test-5s.mp3")
	ctx := context.Background()

	opts := ProcessingOptions{
		ChunkDuration: 1 * time.Minute,
		ChunkOverlap:  10 * time.Second,
		MaxDuration:   1 * time.Minute,
		TempDir:       t.TempDir(),
	}

	chunks, err := ffmpeg.SplitIntoChunks(ctx, testFile, opts)
	if err != nil {
		t.Fatalf("Failed to split audio into chunks: %v", err)
	}
	defer cleanupChunks(chunks)

	if len(chunks) != 1 {
		t.Fatalf("Expected exactly 1 chunk for a 5s clip with 1m chunk size, got %d", len(chunks))
	}
	if chunks[0].Start != 0 {
		t.Errorf("Expected first chunk to start at 0, got %v", chunks[0].Start)
	}
}

// Test chunk splitting produces overlapping boundaries on a longer clip
func TestSplitIntoChunksOverlap(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)

	if err := ffmpeg.ValidateBinaries(); err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}

	testFile := filepath.Join("..", "..", "data", "tests", "clips", "test-30s.mp3")
	ctx := context.Background()

	opts := ProcessingOptions{
		ChunkDuration: 10 * time.Second,
		ChunkOverlap:  3 * time.Second,
		MaxDuration:   1 * time.Minute,
		TempDir:       t.TempDir(),
	}

	chunks, err := ffmpeg.SplitIntoChunks(ctx, testFile, opts)
	if err != nil {
		t.Fatalf("Failed to split audio into chunks: %v", err)
	}
	defer cleanupChunks(chunks)

	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks for a 30s clip with 10s chunk size, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		nominalBoundary := time.Duration(i) * opts.ChunkDuration
		if chunks[i].Start >= nominalBoundary {
			t.Errorf("Expected chunk %d to start before its nominal boundary %v due to overlap, got %v",
				i, nominalBoundary, chunks[i].Start)
		}
	}
}

// Test error handling for non-existent file
func TestGetMetadataFileNotFound(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)

	// Skip if binaries not available
	if err := ffmpeg.ValidateBinaries(); err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}

	ctx := context.Background()

	_, err := ffmpeg.GetMetadata(ctx, "/nonexistent/file.mp3")
	if err == nil {
		t.Errorf("Expected error for non-existent file, got nil")
	}

	// Should be a ProcessingError
	var procErr *ProcessingError
	if !errors.As(err, &procErr) {
		t.Errorf("Expected ProcessingError, got %T", err)
	}
}
