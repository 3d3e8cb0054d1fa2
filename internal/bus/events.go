// Package bus provides the bounded queues that decouple the socket reader from consumers.
package bus

import (
	"encoding/json"
	"time"
)

// Event is one decoded inbound frame from the chat daemon.
// CorrID is empty for unsolicited events.
type Event struct {
	CorrID     string          `json:"corrId,omitempty"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"resp"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// IsResponse reports whether the event carries a correlation ID.
func (e *Event) IsResponse() bool {
	return e.CorrID != ""
}

// Decode unmarshals the "resp" payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
