package transcode

import (
	"context"
	"fmt"

	"transcode-service/internal/logging"
	"transcode-service/internal/queue"
)

// defaultBitrate is assumed when the source bitrate cannot be probed, high
// enough that the profile cap always wins.
const defaultBitrate = 1000

var audioLogger = logging.For("transcode.audio")

// Audio re-encodes audio as AAC in an m4a container, keeping the source
// bitrate where it is below the profile's cap.
type Audio struct {
	runner *Runner
}

// NewAudio creates the audio transcoder.
func NewAudio(runner *Runner) *Audio {
	return &Audio{runner: runner}
}

// Name implements Transcoder.
func (t *Audio) Name() string { return "audio" }

// Transcode implements Transcoder.
func (t *Audio) Transcode(ctx context.Context, src, dst string, item queue.WorkItem) (Stats, error) {
	// `ffmpeg -i file` without an output exits non-zero but still prints
	// the stream info we need.
	info, err := t.runner.RunTolerant(ctx, "ffmpeg", "-i", src)
	if err != nil {
		return Stats{}, fmt.Errorf("audio probe failed: %w", err)
	}

	bitrate := parseBitrate(info)
	if bitrate == 0 {
		audioLogger.Warn("could not find audio bitrate for %s, assuming %d kb/s", src, defaultBitrate)
		bitrate = defaultBitrate
	}
	if limit := item.Profile.MaxBitrate; limit > 0 && bitrate > limit {
		bitrate = limit
	}

	log, err := t.runner.Run(ctx, "ffmpeg",
		"-y", "-i", src,
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-b:a", fmt.Sprintf("%dk", bitrate),
		dst,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("audio encode failed: %w", err)
	}

	stats := Stats{Log: log}
	if d := parseDuration(log); d > 0 {
		stats.Duration = d
	} else {
		audioLogger.Warn("could not find duration of audio file in ffmpeg log for %s", src)
	}
	return stats, nil
}
