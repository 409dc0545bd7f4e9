//go:build !cgo

package transcode

import "transcode-service/internal/logging"

var vipsLogger = logging.For("transcode.vips")

// govips requires cgo; without it the image transcoder always uses the
// pure-Go fallback path.

// InitVips initializes the libvips library. Call once at startup. When
// initialization fails the image transcoder silently falls back to the
// pure-Go path.
func InitVips() {
	vipsLogger.Warn("libvips unavailable (built without cgo), using pure-Go image resizing")
}

// ShutdownVips releases libvips resources. Call during service shutdown.
func ShutdownVips() {}

// vipsResize resizes src into dst as JPEG using libvips. Returns ok=false
// when vips is unavailable or fails, in which case the caller should fall
// back to the pure-Go path.
func vipsResize(src, dst string, width, height int) (Stats, bool) {
	return Stats{}, false
}
