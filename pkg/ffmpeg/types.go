package ffmpeg

import "time"

// AudioMetadata represents metadata extracted from an audio file
type AudioMetadata struct {
	Duration   float64 `json:"duration"`    // Duration in seconds
	SampleRate int     `json:"sample_rate"` // Sample rate in Hz
	Channels   int     `json:"channels"`    // Number of audio channels
	Bitrate    int     `json:"bitrate"`     // Bitrate in bits per second
	Format     string  `json:"format"`      // Container format (mp3, m4a, etc.)
	Codec      string  `json:"codec"`       // Audio codec
	Size       int64   `json:"size"`        // File size in bytes
	Title      string  `json:"title"`       // Title metadata
	Artist     string  `json:"artist"`      // Artist metadata
	Album      string  `json:"album"`       // Album metadata
	Year       string  `json:"year"`        // Year metadata
}

// Chunk describes one segment produced by SplitIntoChunks: a file on disk
// covering [Start, Start+Duration) of the source audio, inclusive of the
// overlap carried in from the previous chunk.
type Chunk struct {
	Index    int           // 0-based position in the sequence
	Path     string        // temp file holding this chunk's audio
	Start    time.Duration // offset of this chunk's start within the source
	Duration time.Duration // length of this chunk (may be shorter for the last one)
}

// ProcessingOptions defines options for audio processing
type ProcessingOptions struct {
	ChunkDuration   time.Duration // target length of each chunk before overlap
	ChunkOverlap    time.Duration // trailing overlap carried into the next chunk
	MaxDuration     time.Duration // maximum source duration to process
	TempDir         string        // directory for temporary files
}

// DefaultProcessingOptions returns sensible defaults for audio processing
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		ChunkDuration: 10 * time.Minute,
		ChunkOverlap:  30 * time.Second,
		MaxDuration:   6 * time.Hour,
		TempDir:       "/tmp",
	}
}
