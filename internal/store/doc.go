// Package store persists the catalog of transcoded media versions in
// SQLite. It subscribes to transcode.finished events so every published
// result becomes a queryable row, keyed by (message, kind, profile).
package store
