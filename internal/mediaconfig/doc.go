// Package mediaconfig holds the static output profile catalog: which
// resolutions and formats each media kind is transcoded into, in priority
// order.
package mediaconfig
