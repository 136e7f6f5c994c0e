package presence

import (
	"errors"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/observability/metrics"
	"github.com/rs/zerolog/log"
)

// Coordinator turns connection lifecycle and chat events into roster
// mutations and broadcasts. It is safe for concurrent use; the roster store
// serializes mutations and every broadcast uses the snapshot of its mutation.
type Coordinator struct {
	Roster  core.RosterStore
	Gateway core.BroadcastGateway
}

func NewCoordinator(roster core.RosterStore, gateway core.BroadcastGateway) *Coordinator {
	return &Coordinator{Roster: roster, Gateway: gateway}
}

// SignIn adds the caller to the roster (no-op if present) and announces it.
func (c *Coordinator) SignIn(caller core.Caller) error {
	if err := c.authorize("sign_in", caller); err != nil {
		return err
	}
	change, err := c.Roster.UpsertOnJoin(caller.Username)
	if err != nil {
		c.reject("sign_in", caller, err)
		return err
	}
	log.Info().
		Str("module", "app.presence").
		Str("conn", string(caller.ConnectionID)).
		Str("user", caller.Username).
		Bool("already_present", change.Existed).
		Msg("signed in")

	c.publish(core.All(), core.UserConnected(caller.Username))
	c.publish(core.All(), core.ActiveUserListUpdated(change.Roster))
	return nil
}

// Disconnect removes the caller and refreshes the roster for everyone left.
// It never fails; a redundant disconnect still refreshes the roster.
func (c *Coordinator) Disconnect(caller core.Caller, reason error) {
	if !caller.Authenticated() {
		c.reject("disconnect", caller, domain.ErrUnauthenticated)
		return
	}
	ev := log.Info().
		Str("module", "app.presence").
		Str("conn", string(caller.ConnectionID)).
		Str("user", caller.Username)
	if reason != nil {
		ev = ev.AnErr("reason", reason)
	}
	ev.Msg("disconnected")

	c.publish(core.AllExcept(caller.ConnectionID), core.UserDisconnected(caller.Username))
	change := c.Roster.Remove(caller.Username)
	if !change.Existed {
		log.Debug().Str("module", "app.presence").Str("user", caller.Username).Msg("redundant disconnect")
	}
	c.publish(core.All(), core.ActiveUserListUpdated(change.Roster))
}

// ChangeDisplayName renames the caller's roster entry. Renaming an absent
// user changes nothing but still refreshes the roster.
func (c *Coordinator) ChangeDisplayName(caller core.Caller, displayName string) error {
	if err := c.authorize("change_display_name", caller); err != nil {
		return err
	}
	name, err := domain.NormalizeDisplayName(displayName)
	if err != nil {
		c.reject("change_display_name", caller, err)
		return err
	}
	change := c.Roster.Rename(caller.Username, name)
	log.Info().
		Str("module", "app.presence").
		Str("user", caller.Username).
		Str("display_name", name).
		Bool("applied", change.Existed).
		Msg("display name changed")

	c.publish(core.All(), core.ActiveUserListUpdated(change.Roster))
	return nil
}

// SendPublicMessage fans a message out to every connection, sender included.
func (c *Coordinator) SendPublicMessage(caller core.Caller, body string) error {
	if err := c.authorize("send_public_message", caller); err != nil {
		return err
	}
	sender, err := c.senderOf(caller.Username)
	if err != nil {
		c.reject("send_public_message", caller, err)
		return err
	}
	msg, err := domain.NewPublicMessage(body, sender)
	if err != nil {
		c.reject("send_public_message", caller, err)
		return err
	}
	log.Debug().Str("module", "app.presence").Str("user", caller.Username).Int("len", len(body)).Msg("public message")

	c.publish(core.All(), core.PublicMessageReceived(msg))
	return nil
}

func (c *Coordinator) ActiveUsers() []domain.ChatUser {
	return c.Roster.Snapshot()
}

// senderOf prefers the roster entry so renames show up on messages; callers
// that never signed in get the derived default.
func (c *Coordinator) senderOf(username string) (domain.ChatUser, error) {
	for _, u := range c.Roster.Snapshot() {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.NewChatUser(username)
}

func (c *Coordinator) authorize(op string, caller core.Caller) error {
	if caller.Authenticated() {
		return nil
	}
	c.reject(op, caller, domain.ErrUnauthenticated)
	return domain.ErrUnauthenticated
}

func (c *Coordinator) reject(op string, caller core.Caller, err error) {
	metrics.ChatRejectedOperations.WithLabelValues(op, Reason(err)).Inc()
	log.Warn().
		Err(err).
		Str("module", "app.presence").
		Str("op", op).
		Str("conn", string(caller.ConnectionID)).
		Str("user", caller.Username).
		Msg("rejected")
}

func (c *Coordinator) publish(aud core.Audience, ev core.Event) {
	res := c.Gateway.Broadcast(aud, ev)
	log.Debug().
		Str("module", "app.presence").
		Str("event", string(ev.Name)).
		Str("audience", aud.String()).
		Int("sent_to", res.SendTo).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
}

// Reason classifies a rejection for metrics and client error codes.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrMalformedIdentity):
		return "malformed_identity"
	case errors.Is(err, domain.ErrDisplayNameEmpty), errors.Is(err, domain.ErrDisplayNameTooLong),
		errors.Is(err, domain.ErrDisplayNameInvalid):
		return "invalid_name"
	case errors.Is(err, domain.ErrMessageEmpty), errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrMessageInvalid):
		return "invalid_message"
	default:
		return "other"
	}
}
