package handlers

import (
	"context"
	"time"

	"transcode-service/internal/mediatypes"
	"transcode-service/internal/pubsub"
)

// Pipeline is the coordinator surface the HTTP layer needs.
type Pipeline interface {
	Transcode(req mediatypes.Request) error
	QueueDepths() map[string]int
	State() string
	Running() bool
}

// VersionReader looks up recorded media versions.
type VersionReader interface {
	VersionsFor(ctx context.Context, msgID string) ([]mediatypes.Result, error)
}

type Handlers struct {
	pipeline  Pipeline
	versions  VersionReader
	bus       *pubsub.Bus
	startTime time.Time
}

func New(pipeline Pipeline, versions VersionReader, bus *pubsub.Bus) *Handlers {
	return &Handlers{
		pipeline:  pipeline,
		versions:  versions,
		bus:       bus,
		startTime: time.Now(),
	}
}
