package pubsub

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"transcode-service/internal/logging"
	"transcode-service/internal/metrics"
)

// Topics published by the service.
const (
	// TopicTranscodeFinished carries one mediatypes.Result per completed
	// transcode profile.
	TopicTranscodeFinished = "transcode.finished"
)

// Event is one published message on a topic.
type Event struct {
	ID        string      `json:"id"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent builds an event with a fresh id and the current time.
func NewEvent(topic string, payload interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

var logger = logging.For("pubsub")

// Bus is an in-process topic bus. Delivery is non-blocking: a subscriber
// that cannot keep up loses events rather than stalling the publisher, so
// result publishing can never back-pressure the transcode pipeline.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers a subscriber for a topic and returns its channel plus
// a cancel function. The channel is closed on cancel. buffer bounds how far
// the subscriber may fall behind before events are dropped.
func (b *Bus) Subscribe(topic string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan Event)
	}
	b.subs[topic][id] = ch
	b.mu.Unlock()

	logger.Debug("subscriber %d joined topic %s", id, topic)

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[topic][id]; ok {
			delete(b.subs[topic], id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every current subscriber of its topic.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
			metrics.EventsDropped.WithLabelValues(ev.Topic).Inc()
			logger.Warn("subscriber %d lagging on topic %s, event %s dropped", id, ev.Topic, ev.ID)
		}
	}
}

// SubscriberCount returns the number of subscribers on a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
