package transcode

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// MediaInfo holds the subset of ffprobe output the pipeline cares about.
type MediaInfo struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
}

// Probe runs ffprobe against a file and extracts duration, dimensions and
// the first codec name from its JSON output. The output is scanned with
// plain string searches rather than a full JSON decode; ffprobe's shape is
// stable and this avoids defining its whole schema.
func (r *Runner) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	// ffprobe reports on stdout, unlike ffmpeg.
	out, err := r.runCaptureStdout(ctx, "ffprobe", cmd...)
	if err != nil {
		return nil, err
	}

	info := &MediaInfo{}

	if idx := strings.Index(out, `"duration"`); idx != -1 {
		start := strings.Index(out[idx:], ":") + idx + 1
		end := strings.Index(out[start:], ",")
		if end == -1 {
			end = strings.Index(out[start:], "}")
		}
		if end != -1 {
			durStr := strings.Trim(out[start:start+end], ` "`)
			info.Duration, _ = strconv.ParseFloat(durStr, 64)
		}
	}

	if idx := strings.Index(out, `"codec_name"`); idx != -1 {
		start := strings.Index(out[idx:], ":") + idx + 1
		if end := strings.Index(out[start:], ","); end != -1 {
			info.Codec = strings.Trim(out[start:start+end], ` "`)
		}
	}

	info.Width = scanIntField(out, `"width"`)
	info.Height = scanIntField(out, `"height"`)

	return info, nil
}

// scanIntField extracts the first integer value for a JSON key.
func scanIntField(out, key string) int {
	idx := strings.Index(out, key)
	if idx == -1 {
		return 0
	}
	start := strings.Index(out[idx:], ":") + idx + 1
	endComma := strings.Index(out[start:], ",")
	endBrace := strings.Index(out[start:], "}")
	end := endComma
	if end == -1 || (endBrace != -1 && endBrace < end) {
		end = endBrace
	}
	if end == -1 {
		return 0
	}
	v, _ := strconv.Atoi(strings.TrimSpace(out[start : start+end]))
	return v
}

var (
	bitratePattern  = regexp.MustCompile(`bitrate:\s*([\d.]+)\s*kb/s`)
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d+):([\d.]+)`)
)

// parseBitrate extracts the stream bitrate in kbit/s from an ffmpeg info
// dump. Returns 0 when not found.
func parseBitrate(log string) int {
	m := bitratePattern.FindStringSubmatch(log)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return int(v)
}

// parseDuration extracts the media duration in seconds from an ffmpeg log.
// Returns 0 when not found.
func parseDuration(log string) float64 {
	m := durationPattern.FindStringSubmatch(log)
	if m == nil {
		return 0
	}
	h, err1 := strconv.ParseFloat(m[1], 64)
	mi, err2 := strconv.ParseFloat(m[2], 64)
	s, err3 := strconv.ParseFloat(m[3], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return h*3600 + mi*60 + s
}
