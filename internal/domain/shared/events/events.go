package events

import "time"

// DomainEvent is an integration fact recorded by the services and shipped
// through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}
