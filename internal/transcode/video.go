package transcode

import (
	"context"
	"fmt"
	"strconv"

	"transcode-service/internal/queue"
)

// scaleFilter builds an ffmpeg scale expression that fits the output inside
// the profile's bounding box, preserving aspect ratio and never upscaling
// beyond the source resolution.
func scaleFilter(width, height int) string {
	return fmt.Sprintf(
		"scale=w='min(iw,%d)':h='min(ih,%d)':force_original_aspect_ratio=decrease",
		width, height,
	)
}

// VideoThumb extracts one representative poster frame from a video, scaled
// to fit the profile's dimensions.
type VideoThumb struct {
	runner *Runner
}

// NewVideoThumb creates the video thumbnail transcoder.
func NewVideoThumb(runner *Runner) *VideoThumb {
	return &VideoThumb{runner: runner}
}

// Name implements Transcoder.
func (t *VideoThumb) Name() string { return "videothumb" }

// Transcode implements Transcoder. ffmpeg's thumbnail filter picks the most
// representative frame instead of the (often black) first one.
func (t *VideoThumb) Transcode(ctx context.Context, src, dst string, item queue.WorkItem) (Stats, error) {
	p := item.Profile
	log, err := t.runner.Run(ctx, "ffmpeg",
		"-y", "-i", src,
		"-vf", "thumbnail,"+scaleFilter(p.Width, p.Height),
		"-frames:v", "1",
		"-an",
		dst,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("thumbnail extraction failed: %w", err)
	}

	stats := Stats{Log: log}
	if w, h, err := imageDimensions(dst); err == nil {
		stats.Width, stats.Height = w, h
	}
	return stats, nil
}

// Video re-encodes a video to the profile's resolution with h264, keeping
// the audio stream as-is.
type Video struct {
	runner *Runner
}

// NewVideo creates the video transcoder.
func NewVideo(runner *Runner) *Video {
	return &Video{runner: runner}
}

// Name implements Transcoder.
func (t *Video) Name() string { return "video" }

// Transcode implements Transcoder. An optional cut range on the request
// restricts the output to [CutFrom, CutTo] seconds.
func (t *Video) Transcode(ctx context.Context, src, dst string, item queue.WorkItem) (Stats, error) {
	p := item.Profile
	req := item.Request

	args := []string{"-y", "-i", src}
	if req.CutTo > 0 {
		args = append(args,
			"-ss", strconv.FormatFloat(req.CutFrom, 'f', -1, 64),
			"-to", strconv.FormatFloat(req.CutTo, 'f', -1, 64),
		)
	}
	args = append(args,
		"-c:v", "libx264",
		// faststart moves the moov atom to the front so playback starts
		// before the whole file is downloaded
		"-movflags", "+faststart",
		"-vf", scaleFilter(p.Width, p.Height),
		"-crf", "26",
		"-c:a", "copy",
		dst,
	)

	log, err := t.runner.Run(ctx, "ffmpeg", args...)
	if err != nil {
		return Stats{}, fmt.Errorf("video encode failed: %w", err)
	}

	stats := Stats{Log: log}
	if info, err := t.runner.Probe(ctx, dst); err == nil {
		stats.Width = info.Width
		stats.Height = info.Height
		stats.Duration = info.Duration
	}
	return stats, nil
}
