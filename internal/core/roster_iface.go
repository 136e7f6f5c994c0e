package core

import "github.com/dkeye/Chat/internal/domain"

// RosterChange is the outcome of one roster operation.
// Roster is the snapshot taken under the same lock as the mutation.
type RosterChange struct {
	User    domain.ChatUser
	Existed bool
	Roster  []domain.ChatUser
}

// RosterStore owns the set of active users of a chat session.
// All operations are atomic with respect to each other.
type RosterStore interface {
	Snapshot() []domain.ChatUser
	Len() int

	// UpsertOnJoin appends the user unless already present; Existed reports
	// whether it was. Fails with domain.ErrMalformedIdentity.
	UpsertOnJoin(username string) (RosterChange, error)
	// Remove is a no-op when the user is absent; Existed reports removal.
	Remove(username string) RosterChange
	// Rename updates the display name in place; Existed reports whether it applied.
	Rename(username, displayName string) RosterChange
}
