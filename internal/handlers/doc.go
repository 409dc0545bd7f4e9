// Package handlers implements the HTTP API of the transcode service:
// request submission, media version lookup, a websocket event stream for
// finished transcodes, and the usual health, version and metrics
// endpoints.
package handlers
