package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"transcode-service/internal/mediatypes"
	"transcode-service/internal/pubsub"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "versions.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func sampleResult(conf string) mediatypes.Result {
	return mediatypes.Result{
		MsgID:    "msg-100",
		Kind:     mediatypes.KindImage,
		Path:     "image/beach-" + conf + ".jpg",
		ConfName: conf,
		Width:    640,
		Height:   480,
		Notify:   true,
	}
}

func TestRecordAndQueryVersions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, conf := range []string{"thumb", "720"} {
		if err := s.RecordVersion(ctx, sampleResult(conf)); err != nil {
			t.Fatalf("RecordVersion(%s) error: %v", conf, err)
		}
	}

	versions, err := s.VersionsFor(ctx, "msg-100")
	if err != nil {
		t.Fatalf("VersionsFor error: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(versions))
	}
	// Ordered by type then conf_name.
	if versions[0].ConfName != "720" || versions[1].ConfName != "thumb" {
		t.Errorf("unexpected order: %s, %s", versions[0].ConfName, versions[1].ConfName)
	}
	if versions[1].Path != "image/beach-thumb.jpg" {
		t.Errorf("path = %q", versions[1].Path)
	}
	if versions[0].Width != 640 || versions[0].Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", versions[0].Width, versions[0].Height)
	}
}

func TestRecordVersionReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleResult("thumb")
	if err := s.RecordVersion(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := first
	second.Width = 320
	second.Height = 240
	if err := s.RecordVersion(ctx, second); err != nil {
		t.Fatal(err)
	}

	versions, err := s.VersionsFor(ctx, "msg-100")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 1 {
		t.Fatalf("got %d versions after upsert, want 1", len(versions))
	}
	if versions[0].Width != 320 {
		t.Errorf("width = %d, want 320 from the replacing row", versions[0].Width)
	}
}

func TestVersionsForUnknownMessage(t *testing.T) {
	s := newTestStore(t)

	versions, err := s.VersionsFor(context.Background(), "no-such-msg")
	if err != nil {
		t.Fatalf("VersionsFor error: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("got %d versions for unknown message, want 0", len(versions))
	}
}

func TestListenRecordsPublishedResults(t *testing.T) {
	s := newTestStore(t)
	bus := pubsub.NewBus()

	stop := s.Listen(bus)
	defer stop()

	bus.Publish(pubsub.NewEvent(pubsub.TopicTranscodeFinished, sampleResult("1080")))

	// The recorder runs asynchronously; poll for the row.
	deadline := time.Now().Add(5 * time.Second)
	for {
		versions, err := s.VersionsFor(context.Background(), "msg-100")
		if err != nil {
			t.Fatal(err)
		}
		if len(versions) == 1 {
			if versions[0].ConfName != "1080" {
				t.Errorf("conf = %q, want 1080", versions[0].ConfName)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("published result never reached the store")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
