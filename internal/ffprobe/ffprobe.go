package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"dts-converter/internal/logging"
	"dts-converter/internal/metrics"
)

// DefaultBitRate is used for target tracks whose bitrate ffprobe does not
// report, in bits per second.
const DefaultBitRate = 768000

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	BitRate   string `json:"bit_rate"`
}

// Track is an audio stream in the source codec.
type Track struct {
	Index   int
	BitRate int64
}

// Prober runs ffprobe against media files.
type Prober struct {
	binary         string
	sourceCodec    string
	defaultBitRate int64
}

// Config configures a Prober.
type Config struct {
	// Binary is the ffprobe executable. Empty means "ffprobe" from PATH.
	Binary string
	// SourceCodec is matched case-insensitively as a substring of
	// codec_name, so "dts" also selects DTS-HD variants reported as "dts".
	SourceCodec string
	// DefaultBitRate applies to tracks without a reported bitrate.
	DefaultBitRate int64
}

// New creates a Prober.
func New(cfg Config) *Prober {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = "ffprobe"
	}
	codec := strings.ToLower(strings.TrimSpace(cfg.SourceCodec))
	if codec == "" {
		codec = "dts"
	}
	bitRate := cfg.DefaultBitRate
	if bitRate <= 0 {
		bitRate = DefaultBitRate
	}
	return &Prober{binary: binary, sourceCodec: codec, defaultBitRate: bitRate}
}

// Inspect executes ffprobe against the provided path and decodes the stream
// list.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-hide_banner",
		"-show_entries", "stream=index,codec_name,codec_type,bit_rate",
		"-of", "json",
		"--", path,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	metrics.ToolDuration.WithLabelValues("ffprobe").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ToolInvocationsTotal.WithLabelValues("ffprobe", "error").Inc()
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	metrics.ToolInvocationsTotal.WithLabelValues("ffprobe", "success").Inc()

	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// HasVideo reports whether path is a regular file with at least one video
// stream. Every failure, including a missing path or a crashing ffprobe,
// yields false.
func (p *Prober) HasVideo(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	result, err := p.Inspect(ctx, path)
	if err != nil {
		logging.Debug("Probe failed for %s, treating as non-video: %v", path, err)
		return false
	}
	return result.VideoStreamCount() > 0
}

// TargetAudioTracks lists the audio streams in the source codec.
func (p *Prober) TargetAudioTracks(ctx context.Context, path string) ([]Track, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	return result.TargetTracks(p.sourceCodec, p.defaultBitRate), nil
}

// Streams lists every stream of path.
func (p *Prober) Streams(ctx context.Context, path string) ([]Stream, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	return result.Streams, nil
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if stream.IsVideo() {
			count++
		}
	}
	return count
}

// TargetTracks returns the audio streams whose codec name contains
// sourceCodec. Missing or unparsable bitrates become defaultBitRate.
func (r Result) TargetTracks(sourceCodec string, defaultBitRate int64) []Track {
	sourceCodec = strings.ToLower(sourceCodec)
	var tracks []Track
	for _, stream := range r.Streams {
		if !stream.IsAudio() {
			continue
		}
		if !strings.Contains(strings.ToLower(stream.CodecName), sourceCodec) {
			continue
		}
		bitRate := stream.BitRateValue()
		if bitRate <= 0 {
			bitRate = defaultBitRate
		}
		tracks = append(tracks, Track{Index: stream.Index, BitRate: bitRate})
	}
	return tracks
}

// IsVideo reports whether the stream is a video stream.
func (s Stream) IsVideo() bool {
	return strings.EqualFold(s.CodecType, "video")
}

// IsAudio reports whether the stream is an audio stream.
func (s Stream) IsAudio() bool {
	return strings.EqualFold(s.CodecType, "audio")
}

// IsSubtitle reports whether the stream is a subtitle stream.
func (s Stream) IsSubtitle() bool {
	return strings.EqualFold(s.CodecType, "subtitle")
}

// BitRateValue returns the stream bitrate in bits per second, or 0 when
// unavailable.
func (s Stream) BitRateValue() int64 {
	cleaned := strings.TrimSpace(s.BitRate)
	if cleaned == "" {
		return 0
	}
	rate, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || rate < 0 {
		return 0
	}
	return rate
}
