package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"transcode-service/internal/mediaconfig"
	"transcode-service/internal/mediatypes"
	"transcode-service/internal/queue"
)

// stubTranscoder lets tests drive the worker loop without ffmpeg. It fails
// for profiles named "bad" and optionally blocks until released.
type stubTranscoder struct {
	block   chan struct{}
	started chan struct{}
}

func (s *stubTranscoder) Name() string { return "stub" }

func (s *stubTranscoder) Transcode(_ context.Context, _, dst string, item queue.WorkItem) (Stats, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	if item.Profile.Name == "bad" {
		return Stats{}, errors.New("synthetic failure")
	}
	if err := os.WriteFile(dst, []byte("transcoded"), 0o644); err != nil {
		return Stats{}, err
	}
	return Stats{Width: 64, Height: 48, Log: "stub log"}, nil
}

func workItem(seq uint64, profileName string) queue.WorkItem {
	return queue.WorkItem{
		Priority: 1,
		Seq:      seq,
		Request:  mediatypes.Request{Kind: mediatypes.KindImage, Path: "holiday.jpg", MsgID: "msg-7"},
		Profile:  mediaconfig.Profile{Name: profileName, Width: 640, Height: 480, Ext: "jpg", Notify: true},
	}
}

func newTestWorker(t *testing.T) (*Worker, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "holiday.jpg"), []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewWorker(&stubTranscoder{}, NewRunner(), root), root
}

func TestWorkerProcessesItemAndRetiresOnStop(t *testing.T) {
	w, root := newTestWorker(t)

	q := queue.New("stub")
	q.Push(workItem(1, "thumb"))
	q.PushStop()

	results := make(chan mediatypes.Result, 4)
	done := make(chan struct{})
	go func() {
		w.Consume(q, results)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not retire after stop marker")
	}

	close(results)
	var got []mediatypes.Result
	for r := range results {
		got = append(got, r)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}

	res := got[0]
	if res.MsgID != "msg-7" {
		t.Errorf("MsgID = %q, want msg-7", res.MsgID)
	}
	if res.ConfName != "thumb" {
		t.Errorf("ConfName = %q, want thumb", res.ConfName)
	}
	if res.Kind != mediatypes.KindImage {
		t.Errorf("Kind = %q, want image", res.Kind)
	}
	if res.Original {
		t.Error("Original should be false on transcoded results")
	}
	if !res.Notify {
		t.Error("Notify flag not copied from profile")
	}
	wantPath := filepath.Join("image", "holiday-thumb.jpg")
	if res.Path != wantPath {
		t.Errorf("Path = %q, want %q", res.Path, wantPath)
	}

	// The output was promoted into the media tree.
	data, err := os.ReadFile(filepath.Join(root, wantPath))
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if string(data) != "transcoded" {
		t.Errorf("output content = %q", data)
	}

	// No staging directories were left behind.
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".transcode-") {
			t.Errorf("staging directory %s not cleaned up", e.Name())
		}
	}
}

func TestWorkerSurvivesTranscodeError(t *testing.T) {
	w, _ := newTestWorker(t)

	q := queue.New("stub")
	q.Push(workItem(1, "bad"))
	q.Push(workItem(2, "thumb"))
	q.PushStop()

	results := make(chan mediatypes.Result, 4)
	done := make(chan struct{})
	go func() {
		w.Consume(q, results)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker exited its loop on a processing error")
	}

	close(results)
	var got []mediatypes.Result
	for r := range results {
		got = append(got, r)
	}
	// The failed item produced no result; the next item still did.
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].ConfName != "thumb" {
		t.Errorf("surviving result ConfName = %q, want thumb", got[0].ConfName)
	}
}

func TestWorkerStopReturnsInFlightItem(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "holiday.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stub := &stubTranscoder{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	w := NewWorker(stub, NewRunner(), root)

	q := queue.New("stub")
	q.Push(workItem(1, "thumb"))

	results := make(chan mediatypes.Result, 1)
	go w.Consume(q, results)

	// Wait until the item is being processed.
	select {
	case <-stub.started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never started processing")
	}

	lost := w.Stop()
	if lost == nil {
		t.Fatal("Stop returned nil while an item was in flight")
	}
	if lost.Profile.Name != "thumb" {
		t.Errorf("lost item profile = %q, want thumb", lost.Profile.Name)
	}

	// Release the stub and retire the worker.
	close(stub.block)
	q.PushStop()
}

func TestWorkerStopWhileResultSendBlocksCountsItemOnce(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "holiday.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stub := &stubTranscoder{started: make(chan struct{}, 1)}
	w := NewWorker(stub, NewRunner(), root)

	q := queue.New("stub")
	q.Push(workItem(1, "thumb"))

	// Unbuffered with nobody receiving yet, so a finished worker blocks on
	// the send the way it would against a full result buffer.
	results := make(chan mediatypes.Result)
	done := make(chan struct{})
	go func() {
		w.Consume(q, results)
		close(done)
	}()

	select {
	case <-stub.started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never started processing")
	}
	// Let the worker finish the item and reach the blocked send.
	time.Sleep(100 * time.Millisecond)

	lost := w.Stop()

	published := false
	select {
	case res := <-results:
		published = true
		if res.ConfName != "thumb" {
			t.Errorf("published ConfName = %q, want thumb", res.ConfName)
		}
	case <-time.After(2 * time.Second):
	}

	// The item must land in exactly one place: the lost-work report or the
	// results channel.
	if lost != nil && published {
		t.Fatal("item counted twice: reported lost and published")
	}
	if lost == nil && !published {
		t.Fatal("item vanished: neither reported lost nor published")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not retire after stop")
	}
}

func TestWorkerHandsBackItemPoppedAfterStop(t *testing.T) {
	w, _ := newTestWorker(t)

	q := queue.New("stub")
	results := make(chan mediatypes.Result, 1)
	done := make(chan struct{})
	go func() {
		w.Consume(q, results)
		close(done)
	}()

	// Let the worker block in Pop on the empty queue, then stop it. An item
	// pushed afterwards must come back out for shutdown accounting instead
	// of being processed.
	time.Sleep(50 * time.Millisecond)
	if lost := w.Stop(); lost != nil {
		t.Fatalf("Stop on waiting worker = %+v, want nil", lost)
	}
	q.Push(workItem(1, "thumb"))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not retire after stop")
	}
	if got := len(q.Drain()); got != 1 {
		t.Errorf("handed-back items = %d, want 1", got)
	}
	if len(results) != 0 {
		t.Errorf("stopped worker published %d results", len(results))
	}
}

func TestWorkerStopIdleReturnsNil(t *testing.T) {
	w, _ := newTestWorker(t)
	if lost := w.Stop(); lost != nil {
		t.Errorf("Stop on idle worker = %+v, want nil", lost)
	}
}

func TestWorkerResolvesAbsoluteSourcePath(t *testing.T) {
	w, root := newTestWorker(t)

	// An absolute source path outside the relative convention still works.
	abs := filepath.Join(root, "holiday.jpg")
	item := workItem(1, "thumb")
	item.Request.Path = abs

	q := queue.New("stub")
	q.Push(item)
	q.PushStop()

	results := make(chan mediatypes.Result, 1)
	w.Consume(q, results)

	select {
	case res := <-results:
		if res.Path != filepath.Join("image", "holiday-thumb.jpg") {
			t.Errorf("Path = %q", res.Path)
		}
	default:
		t.Fatal("no result produced for absolute source path")
	}
}
