package mykafka

import (
	"context"
	"log/slog"
	"time"
)

// Event is the envelope every topic carries.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

func NewEvent(typ string, data any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Data: data}
}

// Emit publishes and logs failures instead of returning them.
func Emit(ctx context.Context, p Publisher, l *slog.Logger, topic, key string, ev Event) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
		l.Error("publish_event_error", "topic", topic, "type", ev.Type, "error", err)
	}
}
