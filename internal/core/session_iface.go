package core

// ConnectionID identifies one physical client connection. A user may hold several.
type ConnectionID string

// Frame is a raw encoded payload ready for the wire.
type Frame []byte

// Caller is the resolved principal behind an inbound operation.
// Username is empty when the transport could not resolve an identity.
type Caller struct {
	ConnectionID ConnectionID
	Username     string
}

func (c Caller) Authenticated() bool { return c.Username != "" }

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
