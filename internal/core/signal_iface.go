package core

// Frame is an encoded outbound event, ready for the wire.
type Frame []byte

// SessionID identifies one live transport connection. It is opaque to the core.
type SessionID string

// SignalConnection abstracts the messaging transport of one connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
