package mediatypes

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the class of a media file. It determines which queue and
// which transcoder variant handles a request.
type Kind string

const (
	// KindVideo is transcoded to multiple resolutions plus a poster thumbnail
	KindVideo Kind = "video"
	// KindImage is resized to multiple resolutions
	KindImage Kind = "image"
	// KindAudio is re-encoded to a fixed codec/container
	KindAudio Kind = "audio"
)

// ErrUnknownMediaKind is returned when a request names a media kind the
// service has no catalog for. This is a caller error, not a transcode
// failure, and is reported synchronously.
var ErrUnknownMediaKind = errors.New("unknown media kind")

// ParseKind validates a wire-level type string.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindVideo:
		return KindVideo, nil
	case KindImage:
		return KindImage, nil
	case KindAudio:
		return KindAudio, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMediaKind, s)
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true,
	".3gp": true, ".wmv": true, ".flv": true, ".ts": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tiff": true, ".tif": true,
}

var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".aac": true, ".ogg": true,
	".opus": true, ".flac": true, ".wav": true, ".wma": true,
	".amr": true, ".oga": true,
}

// KindForExt maps a lowercase file extension (including the dot) to a media
// kind. Returns ErrUnknownMediaKind for anything unrecognized.
func KindForExt(ext string) (Kind, error) {
	ext = strings.ToLower(ext)
	switch {
	case videoExtensions[ext]:
		return KindVideo, nil
	case imageExtensions[ext]:
		return KindImage, nil
	case audioExtensions[ext]:
		return KindAudio, nil
	}
	return "", fmt.Errorf("%w: no kind for extension %q", ErrUnknownMediaKind, ext)
}

// Request describes one piece of raw media to transcode. It is created by
// the message ingestion side when new media arrives and is immutable once
// enqueued.
type Request struct {
	Kind Kind `json:"type"`
	// Path is relative to the media root unless absolute
	Path string `json:"path"`
	// MsgID links the media back to the message that carried it. Opaque.
	MsgID string `json:"msg_id"`
	// Original marks the as-uploaded file rather than a derived version
	Original bool `json:"original"`

	// Optional cut range for video, in seconds. Zero values mean "whole file".
	CutFrom float64 `json:"cut_from,omitempty"`
	CutTo   float64 `json:"cut_to,omitempty"`
}

// Result is the record of one finished transcode: one (request, profile)
// pair that produced an output file. Width, Height and Duration are zero
// when not known for the media kind.
type Result struct {
	MsgID    string  `json:"msg_id"`
	Kind     Kind    `json:"type"`
	Path     string  `json:"path"` // relative to the media root
	ConfName string  `json:"conf_name"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds, audio/video only
	Log      string  `json:"log,omitempty"`
	// Notify tells downstream consumers whether this version is worth a
	// "media ready" signal. Thumbnails are not.
	Notify bool `json:"update"`
	// Original is always false on results; the flag exists so results and
	// stored media versions share one shape with original uploads.
	Original bool `json:"original"`
}

func (r Request) String() string {
	return fmt.Sprintf("%s %q (msg %s)", r.Kind, r.Path, r.MsgID)
}

func (r Result) String() string {
	return fmt.Sprintf("%s %q conf=%s (msg %s)", r.Kind, r.Path, r.ConfName, r.MsgID)
}
