package transcoder

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"dts-converter/internal/ffprobe"
)

// StreamPlan describes what happens to one input stream.
type StreamPlan struct {
	Index     int
	CodecType string
	// AudioOrdinal is the position among output audio streams, or -1 for
	// non-audio streams.
	AudioOrdinal int
	Convert      bool
	BitRate      int64
}

// Plan is a complete ffmpeg invocation for one file.
type Plan struct {
	Input       string
	Output      string
	TargetCodec string
	Streams     []StreamPlan
}

// TempPath returns the sibling path the encoder writes to before the result
// replaces input: "<dir>/<base>_<codec><ext>".
func TempPath(input, targetCodec string) string {
	dir, file := filepath.Split(input)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return filepath.Join(dir, base+"_"+targetCodec+ext)
}

// BuildPlan maps every stream of input and marks the tracks to re-encode.
// Streams are mapped in the order given; each audio stream gets the next
// output audio ordinal whether it is converted or copied.
func BuildPlan(input string, streams []ffprobe.Stream, tracks []ffprobe.Track, targetCodec string) Plan {
	if targetCodec == "" {
		targetCodec = "eac3"
	}
	bitRates := make(map[int]int64, len(tracks))
	for _, track := range tracks {
		bitRates[track.Index] = track.BitRate
	}

	plan := Plan{
		Input:       input,
		Output:      TempPath(input, targetCodec),
		TargetCodec: targetCodec,
		Streams:     make([]StreamPlan, 0, len(streams)),
	}

	ordinal := 0
	for _, stream := range streams {
		sp := StreamPlan{
			Index:        stream.Index,
			CodecType:    strings.ToLower(stream.CodecType),
			AudioOrdinal: -1,
		}
		if stream.IsAudio() {
			sp.AudioOrdinal = ordinal
			ordinal++
			if rate, ok := bitRates[stream.Index]; ok {
				sp.Convert = true
				sp.BitRate = rate
			}
		}
		plan.Streams = append(plan.Streams, sp)
	}
	return plan
}

// ConvertCount returns the number of streams the plan re-encodes.
func (p Plan) ConvertCount() int {
	n := 0
	for _, sp := range p.Streams {
		if sp.Convert {
			n++
		}
	}
	return n
}

// Args builds the ffmpeg argument list (without the binary name).
func (p Plan) Args() []string {
	args := []string{"-hide_banner", "-nostdin", "-i", p.Input}
	for _, sp := range p.Streams {
		args = append(args, "-map", "0:"+strconv.Itoa(sp.Index))
	}

	// Copy everything, then override the converted audio streams.
	args = append(args, "-c", "copy")
	for _, sp := range p.Streams {
		if !sp.Convert {
			continue
		}
		ord := strconv.Itoa(sp.AudioOrdinal)
		args = append(args,
			"-c:a:"+ord, p.TargetCodec,
			"-b:a:"+ord, KiloBits(sp.BitRate),
		)
	}

	args = append(args, "-map_metadata", "0", "-y", p.Output)
	return args
}

// KiloBits renders a bitrate in bits per second as an ffmpeg "<n>k" value,
// flooring to whole kilobits.
func KiloBits(bps int64) string {
	if bps < 1000 {
		bps = 1000
	}
	return fmt.Sprintf("%dk", bps/1000)
}
