package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"transcode-service/internal/logging"
	"transcode-service/internal/mediatypes"
	"transcode-service/internal/metrics"
	"transcode-service/internal/queue"
)

// Stats is what one transcode run learned about its output: dimensions
// and duration where cheaply available, plus the tool log.
type Stats struct {
	Width    int
	Height   int
	Duration float64
	Log      string
}

// Transcoder converts one source file into one output file according to a
// profile. Implementations exist per media kind.
type Transcoder interface {
	// Name labels the variant in logs and metrics, e.g. "videothumb".
	Name() string
	Transcode(ctx context.Context, src, dst string, item queue.WorkItem) (Stats, error)
}

// Worker drives one Transcoder against a queue: it pops work items in
// priority order, stages output in a temporary directory, promotes the
// finished file into the media tree with a single rename, and pushes a
// result. Errors drop the item and the loop continues; only a stop marker
// retires the worker.
type Worker struct {
	tc        Transcoder
	runner    *Runner
	mediaRoot string
	logger    *logging.Logger

	mu      sync.Mutex
	current *queue.WorkItem
	stopped atomic.Bool
}

// NewWorker wires a Transcoder to the media root. The Runner must be the
// same instance the variant uses so Stop can kill a live subprocess.
func NewWorker(tc Transcoder, runner *Runner, mediaRoot string) *Worker {
	return &Worker{
		tc:        tc,
		runner:    runner,
		mediaRoot: mediaRoot,
		logger:    logging.For("transcode." + tc.Name()),
	}
}

// Consume processes items from q until a stop marker is popped. Completed
// results go to the results channel. Consume never returns early on a
// processing error.
func (w *Worker) Consume(q *queue.Queue, results chan<- mediatypes.Result) {
	w.logger.Debug("consuming from queue %s", q.Name())

	for {
		if w.stopped.Load() {
			w.logger.Debug("worker stopped, retiring")
			return
		}
		item, ok := q.Pop()
		if !ok {
			w.logger.Debug("stop signal received, retiring")
			return
		}
		if !w.claim(&item) {
			// Stopped while popping: hand the item back so shutdown
			// accounting can collect it.
			q.Push(item)
			return
		}
		w.logger.Debug("consumed from queue: %s profile %s", item.Request, item.Profile.Name)

		res, err := w.process(context.Background(), item)
		kind := string(item.Request.Kind)
		if err != nil {
			// The item is dropped: no retry, no result for this profile.
			// Sibling profiles of the same request are unaffected.
			w.logger.Error("transcode failed for %s profile %s: %v", item.Request, item.Profile.Name, err)
			metrics.TranscodesTotal.WithLabelValues(kind, item.Profile.Name, "error").Inc()
			w.setCurrent(nil)
			continue
		}
		if !w.commitResult() {
			// Stop already claimed this item as lost; publishing the
			// result now would double-count it.
			w.logger.Warn("discarding result for %s profile %s, worker stopped mid-item", item.Request, item.Profile.Name)
			continue
		}
		metrics.TranscodesTotal.WithLabelValues(kind, item.Profile.Name, "success").Inc()
		results <- res
	}
}

// claim records the item as in flight so Stop reports it as lost. It
// returns false when Stop already ran, in which case the item belongs
// back on the queue. Sharing the mutex with Stop means a popped item is
// always either claimed or handed back, never dropped between the two.
func (w *Worker) claim(item *queue.WorkItem) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped.Load() {
		return false
	}
	w.current = item
	return true
}

// commitResult atomically claims the finished item for publishing. It
// returns false when Stop has already reported the item as lost, in which
// case the result must be discarded. After a true return, Stop no longer
// sees the item as in flight, so an item is counted as lost or published
// but never both.
func (w *Worker) commitResult() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = nil
	return !w.stopped.Load()
}

// Stop kills any live subprocess and returns the work item currently being
// processed, or nil if the worker is idle, so the caller can account for
// lost work during shutdown. After Stop the worker processes no further
// items and discards any result of the interrupted one. Setting the flag
// and reading the in-flight item happen under the same mutex commitResult
// takes, so an item whose result was already committed for publishing is
// never also returned as lost.
func (w *Worker) Stop() *queue.WorkItem {
	w.mu.Lock()
	w.stopped.Store(true)
	item := w.current
	w.mu.Unlock()
	w.runner.Kill()
	return item
}

func (w *Worker) setCurrent(item *queue.WorkItem) {
	w.mu.Lock()
	w.current = item
	w.mu.Unlock()
}

func (w *Worker) process(ctx context.Context, item queue.WorkItem) (mediatypes.Result, error) {
	start := time.Now()
	req := item.Request
	profile := item.Profile

	src := req.Path
	if !filepath.IsAbs(src) {
		src = filepath.Join(w.mediaRoot, req.Path)
	}

	// Stage inside the media root so the final promotion is a rename on
	// one filesystem, never a copy. Readers see the file complete or not
	// at all.
	tmpDir, err := os.MkdirTemp(w.mediaRoot, ".transcode-")
	if err != nil {
		return mediatypes.Result{}, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			w.logger.Warn("failed to remove staging directory %s: %v", tmpDir, err)
		}
	}()

	// <tmpdir>/<originalname>-<profile>.<newext>
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dstTmp := filepath.Join(tmpDir, fmt.Sprintf("%s-%s.%s", base, profile.Name, profile.Ext))

	w.logger.Debug("starting transcode for %s with profile %s", req, profile)
	stats, err := w.tc.Transcode(ctx, src, dstTmp, item)
	if err != nil {
		return mediatypes.Result{}, err
	}
	w.logger.Debug("finished transcode for %s with profile %s", req, profile)

	destDir := filepath.Join(w.mediaRoot, string(req.Kind))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return mediatypes.Result{}, fmt.Errorf("failed to create destination directory: %w", err)
	}
	dstPerm := filepath.Join(destDir, filepath.Base(dstTmp))

	// Rename replaces any existing file at the destination, so re-running
	// the same (source, profile) pair is idempotent.
	if err := os.Rename(dstTmp, dstPerm); err != nil {
		return mediatypes.Result{}, fmt.Errorf("failed to move %s into place: %w", dstTmp, err)
	}

	relPath, err := filepath.Rel(w.mediaRoot, dstPerm)
	if err != nil {
		return mediatypes.Result{}, fmt.Errorf("failed to relativize %s: %w", dstPerm, err)
	}

	metrics.TranscodeDuration.WithLabelValues(string(req.Kind), profile.Name).Observe(time.Since(start).Seconds())

	return mediatypes.Result{
		MsgID:    req.MsgID,
		Kind:     req.Kind,
		Path:     relPath,
		ConfName: profile.Name,
		Width:    stats.Width,
		Height:   stats.Height,
		Duration: stats.Duration,
		Log:      stats.Log,
		Notify:   profile.Notify,
		Original: false,
	}, nil
}
