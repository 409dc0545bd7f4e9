package queue

import (
	"container/heap"
	"sync"

	"transcode-service/internal/mediaconfig"
	"transcode-service/internal/mediatypes"
	"transcode-service/internal/metrics"
)

// WorkItem is one (request, profile) pairing scheduled for processing.
// Ownership transfers to whichever consumer pops it; no item is ever
// processed twice.
type WorkItem struct {
	// Priority orders items within a queue; lower is more urgent.
	Priority int
	// Seq is a strictly increasing tie-breaker shared across all requests,
	// guaranteeing FIFO among equal priorities.
	Seq     uint64
	Request mediatypes.Request
	Profile mediaconfig.Profile
}

// item is the queue element: either a work item or a stop marker. The stop
// marker orders after all real work so pending items drain first.
type item struct {
	stop bool
	work WorkItem
}

type itemHeap []item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	// Stop markers sort after every work item.
	if h[i].stop != h[j].stop {
		return !h[i].stop
	}
	if h[i].stop {
		return false
	}
	if h[i].work.Priority != h[j].work.Priority {
		return h[i].work.Priority < h[j].work.Priority
	}
	return h[i].work.Seq < h[j].work.Seq
}

func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) { *h = append(*h, x.(item)) }

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Queue is a blocking priority queue of work items ordered by
// (priority, sequence) ascending. It is safe for one or more producers and
// one or more consumers.
type Queue struct {
	name  string
	mu    sync.Mutex
	cond  *sync.Cond
	items itemHeap
}

// New creates a named queue. The name labels queue depth metrics and log
// lines.
func New(name string) *Queue {
	q := &Queue{name: name}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Name returns the queue's name.
func (q *Queue) Name() string { return q.name }

// Push enqueues a work item.
func (q *Queue) Push(w WorkItem) {
	q.mu.Lock()
	heap.Push(&q.items, item{work: w})
	depth := q.workLen()
	q.mu.Unlock()

	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(depth))
	q.cond.Signal()
}

// PushStop enqueues one stop marker. Each consumer that should retire needs
// its own marker. Markers order after all pending work.
func (q *Queue) PushStop() {
	q.mu.Lock()
	heap.Push(&q.items, item{stop: true})
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an item is available and returns the highest-priority
// work item. ok is false when the popped item is a stop marker, telling the
// consumer to retire.
func (q *Queue) Pop() (w WorkItem, ok bool) {
	q.mu.Lock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	it := heap.Pop(&q.items).(item)
	depth := q.workLen()
	q.mu.Unlock()

	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(depth))
	if it.stop {
		return WorkItem{}, false
	}
	return it.work, true
}

// Drain removes and returns all pending work items without processing them.
// Stop markers already queued are left in place so blocked consumers still
// retire. Used during shutdown to account for abandoned work.
func (q *Queue) Drain() []WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	var drained []WorkItem
	var keep itemHeap
	for _, it := range q.items {
		if it.stop {
			keep = append(keep, it)
		} else {
			drained = append(drained, it.work)
		}
	}
	q.items = keep
	heap.Init(&q.items)

	metrics.QueueDepth.WithLabelValues(q.name).Set(0)
	return drained
}

// Len returns the number of pending work items, excluding stop markers.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.workLen()
}

// workLen counts work items. Callers must hold q.mu.
func (q *Queue) workLen() int {
	n := 0
	for _, it := range q.items {
		if !it.stop {
			n++
		}
	}
	return n
}
