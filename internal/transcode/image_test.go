package transcode

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"transcode-service/internal/mediaconfig"
	"transcode-service/internal/mediatypes"
	"transcode-service/internal/queue"
)

func writeTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 120, G: 30, B: 200, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
}

func imageItem(profile mediaconfig.Profile) queue.WorkItem {
	return queue.WorkItem{
		Priority: 1,
		Seq:      1,
		Request:  mediatypes.Request{Kind: mediatypes.KindImage, Path: "src.jpg", MsgID: "42"},
		Profile:  profile,
	}
}

func TestImageTranscodeResizes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "out.jpg")
	writeTestImage(t, src, 800, 600)

	tc := NewImage(1)
	profile := mediaconfig.Profile{Name: "thumb", Width: 640, Height: 480, Ext: "jpg"}

	stats, err := tc.Transcode(context.Background(), src, dst, imageItem(profile))
	if err != nil {
		t.Fatalf("Transcode error: %v", err)
	}

	if stats.Width != 640 || stats.Height != 480 {
		t.Errorf("stats = %dx%d, want 640x480", stats.Width, stats.Height)
	}

	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("output = %dx%d, want 640x480", b.Dx(), b.Dy())
	}
}

func TestImageTranscodePreservesAspectRatio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "out.jpg")
	// 2:1 source into a 4:3 box: width binds.
	writeTestImage(t, src, 1600, 800)

	tc := NewImage(1)
	profile := mediaconfig.Profile{Name: "thumb", Width: 640, Height: 480, Ext: "jpg"}

	stats, err := tc.Transcode(context.Background(), src, dst, imageItem(profile))
	if err != nil {
		t.Fatalf("Transcode error: %v", err)
	}
	if stats.Width != 640 || stats.Height != 320 {
		t.Errorf("stats = %dx%d, want 640x320", stats.Width, stats.Height)
	}
}

func TestImageTranscodeNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "out.jpg")
	writeTestImage(t, src, 100, 50)

	tc := NewImage(1)
	profile := mediaconfig.Profile{Name: "1080", Width: 1920, Height: 1080, Ext: "jpg"}

	stats, err := tc.Transcode(context.Background(), src, dst, imageItem(profile))
	if err != nil {
		t.Fatalf("Transcode error: %v", err)
	}
	if stats.Width != 100 || stats.Height != 50 {
		t.Errorf("stats = %dx%d, want source size 100x50", stats.Width, stats.Height)
	}
}

func TestImageTranscodeMissingSource(t *testing.T) {
	dir := t.TempDir()
	tc := NewImage(1)
	profile := mediaconfig.Profile{Name: "thumb", Width: 640, Height: 480, Ext: "jpg"}

	_, err := tc.Transcode(context.Background(), filepath.Join(dir, "nope.jpg"), filepath.Join(dir, "out.jpg"), imageItem(profile))
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestImageDimensions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "probe.jpg")
	writeTestImage(t, src, 320, 240)

	w, h, err := imageDimensions(src)
	if err != nil {
		t.Fatalf("imageDimensions error: %v", err)
	}
	if w != 320 || h != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", w, h)
	}
}
