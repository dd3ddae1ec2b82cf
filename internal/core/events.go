package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Lobby/internal/domain"
)

type EventType string

const (
	EventJoinRoom    EventType = "join-room"
	EventSendMessage EventType = "send-message"
	EventDisconnect  EventType = "disconnect"

	EventJoined     EventType = "joined"
	EventUserJoined EventType = "user-joined"
	EventUserLeft   EventType = "user-left"
	EventNewMessage EventType = "new-message"
	EventError      EventType = "error"
)

// TimestampLayout is RFC 3339 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event")
)

// Inbound is an event fed into a session. The set is closed: JoinRoom,
// SendMessage and Disconnect.
type Inbound interface {
	Type() EventType
	inbound()
}

type JoinRoom struct {
	Pseudo string `json:"pseudo"`
	Room   string `json:"room"`
}

type SendMessage struct {
	Content string `json:"content"`
}

// Disconnect is raised by the transport when a connection goes away.
type Disconnect struct{}

func (JoinRoom) Type() EventType    { return EventJoinRoom }
func (SendMessage) Type() EventType { return EventSendMessage }
func (Disconnect) Type() EventType  { return EventDisconnect }

func (JoinRoom) inbound()    {}
func (SendMessage) inbound() {}
func (Disconnect) inbound()  {}

// Event is an outbound event, addressed to one connection or to a room.
type Event interface {
	Type() EventType
}

type Joined struct {
	Room       domain.RoomName `json:"room"`
	Pseudo     domain.Identity `json:"pseudo"`
	UsersCount int             `json:"usersCount"`
}

type UserJoined struct {
	Pseudo     domain.Identity `json:"pseudo"`
	UsersCount int             `json:"usersCount"`
}

type UserLeft struct {
	Pseudo     domain.Identity `json:"pseudo"`
	UsersCount int             `json:"usersCount"`
}

type NewMessage struct {
	Pseudo    domain.Identity `json:"pseudo"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

func (Joined) Type() EventType     { return EventJoined }
func (UserJoined) Type() EventType { return EventUserJoined }
func (UserLeft) Type() EventType   { return EventUserLeft }
func (NewMessage) Type() EventType { return EventNewMessage }
func (ErrorEvent) Type() EventType { return EventError }

// MessageEvent shapes msg for broadcast.
func MessageEvent(msg domain.Message) NewMessage {
	return NewMessage{
		Pseudo:    msg.Sender,
		Content:   msg.Content,
		Timestamp: FormatTimestamp(msg.SentAt),
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// envelope is the wire shape of every frame: {"type": ..., "data": {...}}.
type envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode renders evt as a wire frame.
func Encode(evt Event) (Frame, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", evt.Type(), err)
	}
	b, err := json.Marshal(envelope{Type: evt.Type(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", evt.Type(), err)
	}
	return b, nil
}

// Decode parses a client frame. Disconnect never arrives over the wire and is
// reported as unknown. A missing data object decodes to a zero payload, which
// the session then rejects through its own validation.
func Decode(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch env.Type {
	case EventJoinRoom:
		var p JoinRoom
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventSendMessage:
		var p SendMessage
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}
