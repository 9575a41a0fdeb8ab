package notify

import (
	"encoding/json"
	"fmt"
)

// Event names sent to clients.
const (
	EventTaskUpdate             = "taskUpdate"
	EventTaskDeleted            = "taskDeleted"
	EventAssignmentNotification = "assignmentNotification"
	EventOverdueReminder        = "overdueReminder"
)

// EventJoin is the client message that subscribes a session to a subject.
const EventJoin = "join"

// Envelope is the wire format of every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// TaskDeletedPayload is the data of a taskDeleted event.
type TaskDeletedPayload struct {
	ID string `json:"id"`
}

// encodeEnvelope serializes an event once so it can be fanned out as bytes.
func encodeEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", event, err)
	}
	return frame, nil
}
