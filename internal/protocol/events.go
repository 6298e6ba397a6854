// Package protocol defines the message types exchanged with the platform
// gateway over NATS: inbound admin events (button selections and free-text
// messages) and outbound render commands (update, send, delete,
// acknowledge). All messages are serialized as JSON and follow a consistent
// envelope format with a type discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound admin event types (gateway -> policy engine).
const (
	TypeCallback = "callback"
	TypeText     = "text"
)

// Outbound render command types (policy engine -> gateway).
const (
	TypeRender = "render"
	TypeSend   = "send"
	TypeDelete = "delete"
	TypeAck    = "ack"
)

// ---------------------------------------------------------------------------
// Envelope — used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the message type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. It captures the
// full raw bytes and extracts only the "type" field so that the rest of the
// payload can be decoded later into the appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Inbound admin events
// ---------------------------------------------------------------------------

// CallbackEvent is a button selection forwarded by the gateway. Data carries
// the routing string baked into the pressed button ("as:tg:pen:<gid>:mute").
// CallbackID identifies the press for acknowledgment.
type CallbackEvent struct {
	Type       string `json:"type"`
	UserID     int64  `json:"user_id"`
	ChatID     int64  `json:"chat_id"`
	MessageID  int64  `json:"message_id"`
	CallbackID string `json:"callback_id"`
	Data       string `json:"data"`
}

// TextEvent is a free-text message from a user, forwarded by the gateway
// only while that user has an open configuration prompt.
type TextEvent struct {
	Type      string `json:"type"`
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
}

// ---------------------------------------------------------------------------
// Outbound render commands
// ---------------------------------------------------------------------------

// Button is one selectable control on a rendered screen.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// RenderCommand asks the gateway to update an existing menu message in
// place. The gateway must treat "content identical to current" as success.
type RenderCommand struct {
	Type      string     `json:"type"`
	ChatID    int64      `json:"chat_id"`
	MessageID int64      `json:"message_id"`
	Text      string     `json:"text"`
	Buttons   [][]Button `json:"buttons"`
}

// SendCommand asks the gateway to send a new message.
type SendCommand struct {
	Type    string     `json:"type"`
	ChatID  int64      `json:"chat_id"`
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons"`
	ReplyTo int64      `json:"reply_to,omitempty"`
}

// DeleteCommand asks the gateway to delete a message. Deletion is cosmetic;
// the gateway may fail and the engine does not care.
type DeleteCommand struct {
	Type      string `json:"type"`
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
}

// AckCommand answers a button press with an optional short notice
// ("Penalty set", "Not admin.").
type AckCommand struct {
	Type       string `json:"type"`
	CallbackID string `json:"callback_id"`
	Notice     string `json:"notice,omitempty"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseAdminEvent parses raw NATS bytes into a typed inbound event. It
// returns the event type string, the decoded struct, and any error
// encountered during parsing. An error is returned for unknown or
// outbound-only message types.
func ParseAdminEvent(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse event: %w", err)
	}

	var (
		msg interface{}
		err error
	)

	switch env.Type {
	case TypeCallback:
		var m CallbackEvent
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeText:
		var m TextEvent
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown admin event type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, msg, nil
}

// NewCommand creates a JSON-encoded byte slice for an outbound render
// command. The cmdType is injected into the payload under the "type" key.
func NewCommand(cmdType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = cmdType
	return json.Marshal(m)
}
