package events

import "time"

// Event is the contract every published system event satisfies.
type Event interface {
	// EventType returns the unique code for this event (e.g. "QUERY_ANSWERED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by ad-hoc publishers.
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

// QueryAnswered is emitted after every completed question turn, successful
// or not, so downstream trainers can replay the traffic.
func QueryAnswered(sessionID, query, tool, outcome string, executionMs int64) BaseEvent {
	return BaseEvent{
		Type: "QUERY_ANSWERED",
		Data: map[string]interface{}{
			"session_id":   sessionID,
			"query":        query,
			"tool":         tool,
			"outcome":      outcome,
			"execution_ms": executionMs,
		},
		OccurredAt: time.Now().UTC(),
	}
}
