package transcode

import (
	"context"
	"fmt"
	"image"
	"os"

	"transcode-service/internal/logging"
	"transcode-service/internal/queue"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

var imageLogger = logging.For("transcode.image")

// Image resizes still images to fit a profile's bounding box, preserving
// aspect ratio and never upscaling. Resizing is CPU-bound, so concurrency
// is capped by a semaphore sized from the available CPUs; extra callers
// wait rather than oversubscribing the machine.
type Image struct {
	sem chan struct{}
}

// NewImage creates the image transcoder with at most maxConcurrent resizes
// in flight.
func NewImage(maxConcurrent int) *Image {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Image{sem: make(chan struct{}, maxConcurrent)}
}

// Name implements Transcoder.
func (t *Image) Name() string { return "image" }

// Transcode implements Transcoder.
func (t *Image) Transcode(ctx context.Context, src, dst string, item queue.WorkItem) (Stats, error) {
	select {
	case t.sem <- struct{}{}:
		defer func() { <-t.sem }()
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}

	p := item.Profile

	// Fast path: libvips, when available, resizes large images in a
	// fraction of the time and memory.
	if stats, ok := vipsResize(src, dst, p.Width, p.Height); ok {
		return stats, nil
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open image: %w", err)
	}

	// Fit scales down to the bounding box and leaves smaller images alone.
	resized := imaging.Fit(img, p.Width, p.Height, imaging.Lanczos)

	if err := imaging.Save(resized, dst, imaging.JPEGQuality(85)); err != nil {
		return Stats{}, fmt.Errorf("failed to save image: %w", err)
	}

	bounds := resized.Bounds()
	return Stats{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// imageDimensions returns an image file's dimensions without fully decoding
// it.
func imageDimensions(path string) (width, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			imageLogger.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}
