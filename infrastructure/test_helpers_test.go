package infrastructure

import (
	"context"
	"sync"

	"lotterypool/domain/events"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu              sync.Mutex
	PublishedEvents []events.Event
	PublishError    error
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

type publishedMessage struct {
	subject string
	msgID   string
	data    []byte
}

// fakeMessageClient stands in for the JetStream connection
type fakeMessageClient struct {
	messages []publishedMessage
	err      error
}

func (f *fakeMessageClient) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, msgID: msgID, data: data})
	return nil
}
