package pubsub

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe(TopicTranscodeFinished, 4)
	defer cancel()

	b.Publish(NewEvent(TopicTranscodeFinished, "hello"))

	select {
	case ev := <-ch:
		if ev.Payload != "hello" {
			t.Errorf("payload = %v, want hello", ev.Payload)
		}
		if ev.Topic != TopicTranscodeFinished {
			t.Errorf("topic = %q, want %q", ev.Topic, TopicTranscodeFinished)
		}
		if ev.ID == "" {
			t.Error("event id is empty")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishToOtherTopicNotDelivered(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe("other.topic", 1)
	defer cancel()

	b.Publish(NewEvent(TopicTranscodeFinished, "x"))

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event delivered: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe(TopicTranscodeFinished, 1)
	if got := b.SubscriberCount(TopicTranscodeFinished); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}
	cancel()
	// Cancel twice is safe.
	cancel()

	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}
	if got := b.SubscriberCount(TopicTranscodeFinished); got != 0 {
		t.Errorf("SubscriberCount = %d after cancel, want 0", got)
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBus()

	// Buffer of one and nobody reading: the second publish must not block.
	_, cancel := b.Subscribe(TopicTranscodeFinished, 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		b.Publish(NewEvent(TopicTranscodeFinished, 1))
		b.Publish(NewEvent(TopicTranscodeFinished, 2))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	b := NewBus()

	ch1, cancel1 := b.Subscribe(TopicTranscodeFinished, 2)
	defer cancel1()
	ch2, cancel2 := b.Subscribe(TopicTranscodeFinished, 2)
	defer cancel2()

	b.Publish(NewEvent(TopicTranscodeFinished, "fanout"))

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Payload != "fanout" {
				t.Errorf("subscriber %d payload = %v, want fanout", i, ev.Payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive event", i)
		}
	}
}
