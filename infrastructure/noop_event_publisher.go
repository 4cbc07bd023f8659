package infrastructure

import (
	"context"

	"lotterypool/domain/events"
)

// NoopEventPublisher is an event publisher that does nothing.
// Used by CLI commands that run without a message bus.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish does nothing with the event
func (n *NoopEventPublisher) Publish(event events.Event) error {
	return nil
}

func (n *NoopEventPublisher) Flush(ctx context.Context) error {
	return nil
}

func (n *NoopEventPublisher) Discard() {}
