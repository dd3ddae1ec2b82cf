package domain

import "time"

const MaxContentLen = 500

// Message is ephemeral: it lives only for the duration of one broadcast.
type Message struct {
	Sender  Identity
	Content string
	SentAt  time.Time
}

// NewMessage validates raw content and stamps it with at.
func NewMessage(sender Identity, raw string, at time.Time) (Message, error) {
	content, ok := clean(raw, contentRule)
	if !ok {
		return Message{}, ErrInvalidMessage
	}
	return Message{Sender: sender, Content: content, SentAt: at}, nil
}
