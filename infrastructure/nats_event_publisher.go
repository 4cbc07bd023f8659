package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lotterypool/domain/events"
	"lotterypool/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const sourceService = "lotterypool"

// messagePublisher is the part of NATSClient the event publisher needs
type messagePublisher interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}

// LocalEventHandler is invoked in-process for every published event of its type
type LocalEventHandler func(context.Context, events.Event) error

// NATSEventPublisher implements the EventPublisher interface using NATS.
// With a nil client only local handlers run.
type NATSEventPublisher struct {
	natsClient    messagePublisher
	subjectMapper *EventSubjectMapper
	localHandlers map[events.EventType][]LocalEventHandler
	metrics       *observability.MetricsProvider
	now           func() time.Time
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(natsClient *NATSClient, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	p := newNATSEventPublisher(nil, subjectMapper)
	if natsClient != nil {
		p.natsClient = natsClient
	}
	return p
}

func newNATSEventPublisher(client messagePublisher, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	if subjectMapper == nil {
		subjectMapper = NewEventSubjectMapper()
	}
	return &NATSEventPublisher{
		natsClient:    client,
		subjectMapper: subjectMapper,
		localHandlers: make(map[events.EventType][]LocalEventHandler),
		now:           time.Now,
	}
}

// Publish runs local handlers for the event, then publishes it to NATS
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()
	eventType := event.Type()

	for _, handler := range p.localHandlers[eventType] {
		if err := handler(ctx, event); err != nil {
			// Local handler failures never block delivery
			log.WithFields(log.Fields{
				"eventType": eventType,
				"error":     err,
			}).Error("Local event handler failed")
		}
	}

	if p.natsClient == nil {
		return nil
	}

	eventID := uuid.New().String()
	data, err := p.encodeEnvelope(eventID, event)
	if err != nil {
		return err
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.natsClient.Publish(ctx, subject, eventID, data); err != nil {
		if strings.Contains(err.Error(), "no response from stream") {
			log.WithField("subject", subject).Warn("No JetStream stream bound to subject, event dropped")
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordEventPublished(string(eventType))
	}

	log.WithFields(log.Fields{
		"eventType": eventType,
		"eventId":   eventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// encodeEnvelope wraps the event in a protobuf Struct serialised as JSON.
// The payload stays a JSON string so int64 amounts keep full precision.
func (p *NATSEventPublisher) encodeEnvelope(eventID string, event events.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope, err := structpb.NewStruct(map[string]any{
		"event_id":       eventID,
		"event_type":     string(event.Type()),
		"occurred_at":    p.now().UTC().Format(time.RFC3339Nano),
		"source_service": sourceService,
		"payload":        string(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build event envelope: %w", err)
	}

	data, err := protojson.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, nil
}

// WithMetrics counts every event delivered to NATS
func (p *NATSEventPublisher) WithMetrics(mp *observability.MetricsProvider) *NATSEventPublisher {
	p.metrics = mp
	return p
}

// RegisterLocalHandler registers a handler that will be invoked locally for events
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler LocalEventHandler) {
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(p.localHandlers[eventType]),
	}).Info("Registered local event handler")
}

// EnsureLotteryEventStream creates the stream covering every published subject
func (p *NATSEventPublisher) EnsureLotteryEventStream() error {
	client, ok := p.natsClient.(*NATSClient)
	if !ok {
		return nil
	}
	return client.EnsureStream(LotteryEventStream, p.subjectMapper.GetAllSubjects())
}

// DecodeEnvelope parses an envelope produced by Publish
func DecodeEnvelope(data []byte) (eventID string, eventType events.EventType, payload []byte, err error) {
	envelope := &structpb.Struct{}
	if err := protojson.Unmarshal(data, envelope); err != nil {
		return "", "", nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	fields := envelope.GetFields()
	return fields["event_id"].GetStringValue(),
		events.EventType(fields["event_type"].GetStringValue()),
		[]byte(fields["payload"].GetStringValue()),
		nil
}
