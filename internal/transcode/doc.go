// Package transcode converts uploaded media into the configured output
// profiles using FFmpeg (video, audio) and in-process resizing (images).
//
// A Worker couples one Transcoder variant to a priority queue: items are
// staged in a temporary directory inside the media root and promoted into
// `<root>/<kind>/` with a single rename, so readers never observe a
// partially written file. Per-item failures are logged and dropped; only an
// explicit stop marker ends a worker's consume loop.
//
// FFmpeg and FFprobe must be installed and available in the system PATH
// for video and audio transcoding.
package transcode
