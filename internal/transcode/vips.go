//go:build cgo

package transcode

import (
	"os"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"transcode-service/internal/logging"
)

var (
	vipsInitMutex sync.Mutex
	vipsStarted   bool
	vipsAvailable bool
)

var vipsLogger = logging.For("transcode.vips")

// InitVips initializes the libvips library. Call once at startup. When
// initialization fails the image transcoder silently falls back to the
// pure-Go path.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsStarted {
		return
	}
	vipsStarted = true

	defer func() {
		if r := recover(); r != nil {
			vipsLogger.Warn("libvips unavailable, using pure-Go image resizing: %v", r)
			vipsAvailable = false
		}
	}()

	// Route vips chatter through our logger, suppressing anything below
	// warning unless debug logging is on.
	verbosity := vips.LogLevelWarning
	if logging.IsDebugEnabled() {
		verbosity = vips.LogLevelInfo
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			vipsLogger.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			vipsLogger.Warn("[%s] %s", domain, msg)
		default:
			vipsLogger.Debug("[%s] %s", domain, msg)
		}
	}, verbosity)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1, // concurrency is managed by the image semaphore
	})
	vipsAvailable = true
	vipsLogger.Info("libvips initialized")
}

// ShutdownVips releases libvips resources. Call during service shutdown.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
	}
}

// vipsResize resizes src into dst as JPEG using libvips. Returns ok=false
// when vips is unavailable or fails, in which case the caller should fall
// back to the pure-Go path.
func vipsResize(src, dst string, width, height int) (Stats, bool) {
	vipsInitMutex.Lock()
	available := vipsAvailable
	vipsInitMutex.Unlock()
	if !available {
		return Stats{}, false
	}

	img, err := vips.NewImageFromFile(src)
	if err != nil {
		vipsLogger.Debug("vips could not open %s: %v", src, err)
		return Stats{}, false
	}
	defer img.Close()

	// SizeDown only ever shrinks, matching the never-upscale rule.
	if err := img.ThumbnailWithSize(width, height, vips.InterestingNone, vips.SizeDown); err != nil {
		vipsLogger.Debug("vips resize failed for %s: %v", src, err)
		return Stats{}, false
	}

	params := vips.NewJpegExportParams()
	params.Quality = 85
	buf, meta, err := img.ExportJpeg(params)
	if err != nil {
		vipsLogger.Debug("vips export failed for %s: %v", src, err)
		return Stats{}, false
	}

	if err := os.WriteFile(dst, buf, 0o644); err != nil {
		vipsLogger.Debug("failed to write %s: %v", dst, err)
		return Stats{}, false
	}

	return Stats{Width: meta.Width, Height: meta.Height}, true
}
