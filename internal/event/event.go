// Package event defines the inbound event shapes the router consumes
//: one JSON object per event, either a chat message or a
// group-participants change.
package event

// Type names the inbound event's kind.
type Type string

const (
	TypeMessage      Type = "message"
	TypeParticipants Type = "group.participants"
)

// ParticipantChange names one group.participants mutation kind.
type ParticipantChange string

const (
	ParticipantJoin    ParticipantChange = "join"
	ParticipantLeave   ParticipantChange = "leave"
	ParticipantPromote ParticipantChange = "promote"
	ParticipantDemote  ParticipantChange = "demote"
)

// Inbound is the envelope for every event the gateway delivers.
type Inbound struct {
	Event    Type            `json:"event"`
	DeviceID string          `json:"device_id"`
	Payload  InboundPayload  `json:"payload"`
}

// InboundPayload is a union of the two payload shapes the gateway
// envelope defines; only the fields relevant to Event are populated.
type InboundPayload struct {
	// "message" fields.
	ID            string `json:"id,omitempty"`
	ChatID        string `json:"chat_id,omitempty"`
	From          string `json:"from,omitempty"`
	FromName      string `json:"from_name,omitempty"`
	Body          string `json:"body,omitempty"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	RepliedToID   string `json:"replied_to_id,omitempty"`
	QuotedBody    string `json:"quoted_body,omitempty"`

	// "group.participants" fields.
	Type ParticipantChange `json:"type,omitempty"`
	JIDs []string          `json:"jids,omitempty"`
}

// IsSelf reports whether this message event originated from the bot's
// own device, which must be skipped.
func (in Inbound) IsSelf() bool {
	return in.Event == TypeMessage && in.Payload.From == in.DeviceID
}
