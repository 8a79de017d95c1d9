package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/pkg/logger"
)

// EventPublisher receives committed store events in-process.
type EventPublisher interface {
	Publish(event model.Event)
}

// EventStream persists committed events for out-of-process consumers.
type EventStream interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// emitter pushes a committed event to subscribers and onto the durable
// stream. Emission always happens after the owning transaction commits: an
// event never describes uncommitted state.
type emitter struct {
	hub    EventPublisher
	stream EventStream
}

func (e emitter) emit(ctx context.Context, ev model.Event) {
	ev.ID = uuid.NewString()
	ev.OccurredAt = time.Now().UTC()

	if e.hub != nil {
		e.hub.Publish(ev)
	}
	if e.stream != nil {
		if _, err := e.stream.PublishJSON(ctx, ev, map[string]string{"type": string(ev.Type)}); err != nil {
			logger.Error("publish event to stream failed", "error", err, "type", ev.Type)
		}
	}
}
