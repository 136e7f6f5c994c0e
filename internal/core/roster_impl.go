package core

import (
	"slices"
	"sync"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// rosterImpl is a threadsafe in-memory roster.
// Insertion order is preserved; usernames are unique.
type rosterImpl struct {
	mu    sync.Mutex
	users []domain.ChatUser
}

func NewRosterStore() RosterStore {
	return &rosterImpl{users: make([]domain.ChatUser, 0)}
}

func (r *rosterImpl) Snapshot() []domain.ChatUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *rosterImpl) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *rosterImpl) UpsertOnJoin(username string) (RosterChange, error) {
	// Validate before locking: a malformed identity never touches the roster.
	user, err := domain.NewChatUser(username)
	if err != nil {
		return RosterChange{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(username); i >= 0 {
		return RosterChange{User: r.users[i], Existed: true, Roster: r.snapshotLocked()}, nil
	}
	r.users = append(r.users, user)
	log.Info().Str("module", "core.roster").Str("user", username).Int("count", len(r.users)).Msg("user added")
	return RosterChange{User: user, Roster: r.snapshotLocked()}, nil
}

func (r *rosterImpl) Remove(username string) RosterChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(username)
	if i < 0 {
		return RosterChange{Roster: r.snapshotLocked()}
	}
	user := r.users[i]
	r.users = slices.Delete(r.users, i, i+1)
	log.Info().Str("module", "core.roster").Str("user", username).Int("count", len(r.users)).Msg("user removed")
	return RosterChange{User: user, Existed: true, Roster: r.snapshotLocked()}
}

func (r *rosterImpl) Rename(username, displayName string) RosterChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(username)
	if i < 0 {
		return RosterChange{Roster: r.snapshotLocked()}
	}
	r.users[i].DisplayName = displayName
	log.Info().Str("module", "core.roster").Str("user", username).Str("display_name", displayName).Msg("user renamed")
	return RosterChange{User: r.users[i], Existed: true, Roster: r.snapshotLocked()}
}

func (r *rosterImpl) indexLocked(username string) int {
	_, i, ok := lo.FindIndexOf(r.users, func(u domain.ChatUser) bool { return u.Username == username })
	if !ok {
		return -1
	}
	return i
}

func (r *rosterImpl) snapshotLocked() []domain.ChatUser {
	out := make([]domain.ChatUser, len(r.users))
	copy(out, r.users)
	return out
}
