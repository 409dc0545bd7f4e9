package coordinator

import (
	"errors"
	"sync"
	"sync/atomic"

	"transcode-service/internal/logging"
	"transcode-service/internal/mediaconfig"
	"transcode-service/internal/mediatypes"
	"transcode-service/internal/metrics"
	"transcode-service/internal/pubsub"
	"transcode-service/internal/queue"
	"transcode-service/internal/transcode"
	"transcode-service/internal/workers"
)

// Queue names. Video requests feed two queues so poster thumbnails never
// wait behind full re-encodes.
const (
	QueueVideoThumb = "videothumb"
	QueueVideo      = "video"
	QueueImage      = "image"
	QueueAudio      = "audio"
)

const defaultResultBuffer = 64

// ErrShuttingDown is returned by Transcode once shutdown has begun. New
// work is refused rather than silently dropped mid-drain.
var ErrShuttingDown = errors.New("transcode coordinator is shutting down")

const (
	stateRunning int32 = iota
	stateDraining
	stateStopped
)

// Config carries the coordinator's tunables. Zero values pick sensible
// defaults; only MediaRoot is required.
type Config struct {
	// MediaRoot is the directory all media paths resolve against and all
	// output files land under.
	MediaRoot string
	// ResultBuffer bounds how many finished results may sit between the
	// workers and the publisher. Defaults to 64.
	ResultBuffer int
	// ImageWorkers caps concurrent image resizes. Defaults to one per CPU.
	ImageWorkers int
	// ConsumersPerQueue sets how many workers drain each queue. Defaults
	// to 1; items of equal priority still leave each queue in FIFO order,
	// but completion order across workers is not guaranteed.
	ConsumersPerQueue int
}

// binding pairs one queue with the workers that consume it.
type binding struct {
	queue   *queue.Queue
	workers []*transcode.Worker
}

// Coordinator owns the transcode pipeline: one priority queue per media
// class, one worker per queue, and a single publisher goroutine that turns
// finished results into transcode.finished events on the bus.
type Coordinator struct {
	bus      *pubsub.Bus
	logger   *logging.Logger
	queues   map[string]*queue.Queue
	bindings []binding
	results  chan mediatypes.Result

	seq   atomic.Uint64
	state atomic.Int32
	// stateMu serializes Transcode's check-and-enqueue against Shutdown's
	// transition to draining, so no request can land items in a queue after
	// that queue has been drained for the shutdown report.
	stateMu sync.RWMutex

	consumers sync.WaitGroup
	publisher sync.WaitGroup
}

// New builds a coordinator with the standard transcoder set: ffmpeg-backed
// video, video thumbnail and audio variants, and the in-process image
// resizer.
func New(cfg Config, bus *pubsub.Bus) *Coordinator {
	if cfg.ImageWorkers <= 0 {
		cfg.ImageWorkers = workers.ForCPU(8)
	}
	if cfg.ConsumersPerQueue <= 0 {
		cfg.ConsumersPerQueue = 1
	}

	// All image workers share one resizer so its concurrency cap holds
	// across the whole pipeline.
	img := transcode.NewImage(cfg.ImageWorkers)

	var bs []binding
	for _, mk := range []struct {
		name string
		tc   func(*transcode.Runner) transcode.Transcoder
	}{
		{QueueVideoThumb, func(r *transcode.Runner) transcode.Transcoder { return transcode.NewVideoThumb(r) }},
		{QueueVideo, func(r *transcode.Runner) transcode.Transcoder { return transcode.NewVideo(r) }},
		{QueueImage, func(*transcode.Runner) transcode.Transcoder { return img }},
		{QueueAudio, func(r *transcode.Runner) transcode.Transcoder { return transcode.NewAudio(r) }},
	} {
		b := binding{queue: queue.New(mk.name)}
		for i := 0; i < cfg.ConsumersPerQueue; i++ {
			// Each worker gets its own runner so Stop only kills its own
			// subprocess.
			r := transcode.NewRunner()
			b.workers = append(b.workers, transcode.NewWorker(mk.tc(r), r, cfg.MediaRoot))
		}
		bs = append(bs, b)
	}
	return newCoordinator(cfg, bus, bs)
}

// newCoordinator is the core constructor, split out so tests can inject
// stub workers.
func newCoordinator(cfg Config, bus *pubsub.Bus, bs []binding) *Coordinator {
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = defaultResultBuffer
	}
	c := &Coordinator{
		bus:      bus,
		logger:   logging.For("coordinator"),
		queues:   make(map[string]*queue.Queue, len(bs)),
		bindings: bs,
		results:  make(chan mediatypes.Result, cfg.ResultBuffer),
	}
	for _, b := range bs {
		c.queues[b.queue.Name()] = b.queue
	}
	return c
}

// Start launches the consumer goroutines and the result publisher.
func (c *Coordinator) Start() {
	n := 0
	for _, b := range c.bindings {
		for _, w := range b.workers {
			c.consumers.Add(1)
			n++
			go func(q *queue.Queue, w *transcode.Worker) {
				defer c.consumers.Done()
				w.Consume(q, c.results)
			}(b.queue, w)
		}
	}
	c.publisher.Add(1)
	go c.publishResults()
	c.logger.Info("started %d queue consumers", n)
}

// Transcode fans a request out into work items, one per catalog profile,
// on the queue for its kind. Video requests additionally get a thumbnail
// item on the videothumb queue. An unknown kind is reported synchronously;
// everything after enqueueing is asynchronous and failures there only
// surface in logs and metrics.
func (c *Coordinator) Transcode(req mediatypes.Request) error {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.state.Load() != stateRunning {
		return ErrShuttingDown
	}
	profiles, err := mediaconfig.ProfilesFor(req.Kind)
	if err != nil {
		return err
	}

	c.logger.Info("scheduling transcode for %s", req)
	if req.Kind == mediatypes.KindVideo {
		c.enqueue(QueueVideoThumb, req, mediaconfig.VideoThumbProfiles)
	}
	c.enqueue(string(req.Kind), req, profiles)
	return nil
}

// enqueue pushes one work item per profile. Priority is the profile's
// ordinal position in the catalog, starting at 1, so cheaper renditions
// come out of the queue first.
func (c *Coordinator) enqueue(queueName string, req mediatypes.Request, profiles []mediaconfig.Profile) {
	q := c.queues[queueName]
	for i, p := range profiles {
		q.Push(queue.WorkItem{
			Priority: i + 1,
			Seq:      c.seq.Add(1),
			Request:  req,
			Profile:  p,
		})
		metrics.ItemsEnqueued.WithLabelValues(queueName).Inc()
	}
}

// publishResults forwards finished results to the bus until the results
// channel is closed by Shutdown.
func (c *Coordinator) publishResults() {
	defer c.publisher.Done()
	for res := range c.results {
		c.logger.Info("result of transcode: %s", res)
		c.bus.Publish(pubsub.NewEvent(pubsub.TopicTranscodeFinished, res))
		metrics.ResultsPublished.Inc()
	}
}

// QueueDepths reports pending work per queue, for health reporting.
func (c *Coordinator) QueueDepths() map[string]int {
	out := make(map[string]int, len(c.queues))
	for name, q := range c.queues {
		out[name] = q.Len()
	}
	return out
}

// State reports the coordinator lifecycle phase.
func (c *Coordinator) State() string {
	switch c.state.Load() {
	case stateDraining:
		return "draining"
	case stateStopped:
		return "stopped"
	}
	return "running"
}

// Running reports whether new requests are being accepted.
func (c *Coordinator) Running() bool {
	return c.state.Load() == stateRunning
}

// Shutdown stops the pipeline and accounts for every piece of unfinished
// work: in-flight items are interrupted, queued items are drained
// unprocessed, and results nobody published are collected. Each lost item
// appears in exactly one category. Shutdown blocks until all goroutines
// have retired; calling it more than once returns an empty report.
func (c *Coordinator) Shutdown() *Report {
	report := &Report{}
	c.stateMu.Lock()
	swapped := c.state.CompareAndSwap(stateRunning, stateDraining)
	c.stateMu.Unlock()
	if !swapped {
		return report
	}
	c.logger.Info("shutting down, draining queues")

	// Interrupt the workers first so no new items are picked up while the
	// queues drain.
	for _, b := range c.bindings {
		for _, w := range b.workers {
			if item := w.Stop(); item != nil {
				report.InFlight = append(report.InFlight, *item)
			}
		}
	}
	for _, b := range c.bindings {
		report.Queued = append(report.Queued, b.queue.Drain()...)
	}
	// One marker per worker so every blocked consumer wakes up.
	for _, b := range c.bindings {
		for range b.workers {
			b.queue.PushStop()
		}
	}
	c.consumers.Wait()

	// A worker that raced the stop flag hands its popped item back to the
	// queue. Every consumer has retired now, so sweep the queues again and
	// account for anything that landed after the first drain.
	for _, b := range c.bindings {
		report.Queued = append(report.Queued, b.queue.Drain()...)
	}

	// The workers are gone. Anything still buffered was finished before the
	// stop landed but never reached the publisher.
collect:
	for {
		select {
		case res := <-c.results:
			report.Unpublished = append(report.Unpublished, res)
		default:
			break collect
		}
	}
	close(c.results)
	c.publisher.Wait()
	c.state.Store(stateStopped)

	metrics.LostWork.WithLabelValues("in_flight").Add(float64(len(report.InFlight)))
	metrics.LostWork.WithLabelValues("queued").Add(float64(len(report.Queued)))
	metrics.LostWork.WithLabelValues("unpublished").Add(float64(len(report.Unpublished)))

	report.log(c.logger)
	return report
}
