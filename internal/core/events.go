package core

import "github.com/dkeye/Chat/internal/domain"

type EventName string

const (
	EventUserConnected         EventName = "userConnected"
	EventUserDisconnected      EventName = "userDisconnected"
	EventActiveUserListUpdated EventName = "activeUserListUpdated"
	EventPublicMessageReceived EventName = "publicMessageReceived"
)

// Event is an outbound broadcast. The payload shape is fixed per name.
type Event struct {
	Name    EventName `json:"type"`
	Payload any       `json:"payload"`
}

func UserConnected(username string) Event {
	return Event{Name: EventUserConnected, Payload: username}
}

func UserDisconnected(username string) Event {
	return Event{Name: EventUserDisconnected, Payload: username}
}

// ActiveUserListUpdated copies roster so the event stays immutable; an empty
// roster encodes as [] rather than null.
func ActiveUserListUpdated(roster []domain.ChatUser) Event {
	users := make([]domain.ChatUser, len(roster))
	copy(users, roster)
	return Event{Name: EventActiveUserListUpdated, Payload: users}
}

func PublicMessageReceived(msg domain.PublicMessage) Event {
	return Event{Name: EventPublicMessageReceived, Payload: msg}
}
