package repository

import (
	"context"
	"sync"

	"lotterypool/domain/events"
)

// recordingPublisher buffers events like the NATS transactional publisher and
// remembers what was flushed.
type recordingPublisher struct {
	mu        sync.Mutex
	pending   []events.Event
	flushed   []events.Event
	discarded int
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

func (p *recordingPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushed = append(p.flushed, p.pending...)
	p.pending = nil
	return nil
}

func (p *recordingPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discarded += len(p.pending)
	p.pending = nil
}

func (p *recordingPublisher) flushedTypes() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]events.EventType, len(p.flushed))
	for i, e := range p.flushed {
		types[i] = e.Type()
	}
	return types
}
