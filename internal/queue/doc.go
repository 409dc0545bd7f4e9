// Package queue implements the blocking priority queues that feed the
// transcoder consumers.
//
// Items are ordered by (priority, sequence) ascending: priority comes from
// a profile's position in the catalog, the sequence number is a process-wide
// monotonic counter that makes equal-priority items FIFO across requests.
// A queue element is either a work item or an explicit stop marker; stop
// markers sort after all pending work so a retiring consumer first drains
// everything already queued.
package queue
