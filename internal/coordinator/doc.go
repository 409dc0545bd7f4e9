// Package coordinator ties the transcode pipeline together. It owns the
// per-kind priority queues, the worker goroutines consuming them, and the
// publisher that fans finished results out as transcode.finished events.
//
// A request enters through Transcode, which expands it into one work item
// per catalog profile. Shutdown drains the whole pipeline and returns a
// report of everything that was abandoned.
package coordinator
