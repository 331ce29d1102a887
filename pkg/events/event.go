package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Handler processes one delivered event. A non-nil error asks the bus to redeliver.
type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Subscriber interface {
	// Subscribe delivers events whose subject matches pattern ("events.>" for all).
	Subscribe(ctx context.Context, pattern, durableName string, handler Handler) error
}

// Subject is the bus subject an event travels on.
func Subject(event Event) string {
	return "events." + event.EventType()
}

// MatchSubject supports exact subjects and a trailing ">" wildcard.
func MatchSubject(pattern, subject string) bool {
	if n := len(pattern); n > 0 && pattern[n-1] == '>' {
		prefix := pattern[:n-1]
		return len(subject) > len(prefix) && subject[:len(prefix)] == prefix
	}
	return pattern == subject
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
