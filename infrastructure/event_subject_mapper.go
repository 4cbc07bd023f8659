package infrastructure

import (
	"fmt"

	"lotterypool/domain/events"
)

var eventSubjects = map[events.EventType]string{
	events.EventTypePoolDeployed:  "lottery.pool.deployed",
	events.EventTypePlayerEntered: "lottery.pool.entered",
	events.EventTypeWinnerPicked:  "lottery.pool.winner_picked",
	events.EventTypeBalanceChange: "ledger.balance_changed",
	events.EventTypeAccountOpened: "ledger.account_opened",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"lottery.pool.deployed",
		"lottery.pool.entered",
		"lottery.pool.winner_picked",
		"ledger.balance_changed",
		"ledger.account_opened",
	}
}
