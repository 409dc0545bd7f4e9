// Package pubsub is the in-process topic bus that decouples the transcode
// pipeline from its consumers. The coordinator publishes one
// transcode.finished event per completed profile; the version store and any
// websocket clients subscribe independently.
package pubsub
