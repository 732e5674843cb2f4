// Package protocol defines the event channel shared with the session
// authority. Every message is a JSON envelope carrying an event name
// and an event-specific payload.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/doodleyaar/client/internal/stroke"
)

// Outbound events (client to authority)
const (
	EventCreateSession = "create-session"
	EventJoinSession   = "join-session"
	EventStartStroke   = "start-stroke"
	EventDrawStroke    = "draw-stroke"
	EventEndStroke     = "end-stroke"
	EventUndoStroke    = "undo-stroke"
	EventClearCanvas   = "clear-canvas"
	EventSendMessage   = "send-message"
)

// Inbound events (authority to client)
const (
	EventConnected      = "connected"
	EventSessionCreated = "session-created"
	EventJoinSuccess    = "join-success"
	EventErrorMessage   = "error-message"
	EventUpdateMembers  = "update-members"
	EventNewHost        = "new-host"
	EventUpdateChat     = "update-chat"
	EventNewStroke      = "new-stroke"
	EventLiveStroke     = "live-stroke"
	EventEndLiveStroke  = "end-live-stroke"
	EventRemoveStroke   = "remove-stroke"
	EventCanvasCleared  = "canvas-cleared"
)

// Message is the wire envelope. Data is absent for events that carry no
// payload, like clear-canvas.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps a payload in an envelope. A nil payload produces an
// envelope with no data.
func NewMessage(event string, payload any) (Message, error) {
	m := Message{Event: event}
	if payload == nil {
		return m, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	m.Data = data
	return m, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: empty payload", m.Event)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Event, err)
	}
	return nil
}

// Encode serializes an envelope for the wire.
func Encode(m Message) ([]byte, error) {
	if m.Event == "" {
		return nil, fmt.Errorf("message without event")
	}
	return json.Marshal(m)
}

// Parse reads an envelope off the wire.
func Parse(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("parse message: %w", err)
	}
	if m.Event == "" {
		return Message{}, fmt.Errorf("message without event")
	}
	return m, nil
}

// One chat entry; Timestamp is assigned by the authority and orders the
// log.
type ChatMessage struct {
	UserID    string `json:"userId"`
	Nickname  string `json:"nickname"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Outbound payloads

type CreateSession struct {
	Nick string `json:"nick"`
}

type JoinSession struct {
	Nick string `json:"nick"`
	Code string `json:"code"`
}

// StrokeEvent is the payload for both start-stroke (one seed point) and
// end-stroke (the whole buffer). Style rides along so the stroke is
// self-consistent on its own.
type StrokeEvent struct {
	Points  []stroke.Point `json:"points"`
	Color   string         `json:"color"`
	Size    float64        `json:"size"`
	Opacity float64        `json:"opacity"`
	Tool    stroke.Tool    `json:"tool"`
}

// DrawStroke carries only the growing point sequence; style was fixed
// at stroke start.
type DrawStroke struct {
	Points []stroke.Point `json:"points"`
}

type SendMessage struct {
	Message  string `json:"message"`
	Nickname string `json:"nickname"`
}

// Inbound payloads

type Connected struct {
	UserID string `json:"userId"`
}

type SessionCreated struct {
	Code   string `json:"code"`
	Nick   string `json:"nick"`
	HostID string `json:"hostId"`
}

type JoinSuccess struct {
	Code    string            `json:"code"`
	Nick    string            `json:"nick"`
	HostID  string            `json:"hostId"`
	Members map[string]string `json:"members"`
	Strokes []stroke.Stroke   `json:"strokes"`
	Chat    []ChatMessage     `json:"chat"`
}

type ErrorMessage struct {
	Text string `json:"text"`
}

type UpdateMembers struct {
	Members map[string]string `json:"members"`
}

type NewHost struct {
	HostID string `json:"hostId"`
}

type UpdateChat struct {
	ChatLog []ChatMessage `json:"chatLog"`
}

type NewStroke struct {
	Stroke stroke.Stroke `json:"stroke"`
}

type LiveStroke struct {
	Stroke stroke.Stroke `json:"stroke"`
}

type EndLiveStroke struct {
	UserID string `json:"userId"`
}

type RemoveStroke struct {
	ID string `json:"id"`
}
