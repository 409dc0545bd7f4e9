// Package mediatypes defines the media kinds the service understands and
// the request/result shapes exchanged between the coordinator, the
// transcoders and downstream consumers.
package mediatypes
