package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChatUser_DerivesDisplayNameFromLocalPart(t *testing.T) {
	u, err := NewChatUser("alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", u.Username)
	require.Equal(t, "alice", u.DisplayName)
}

func TestNewChatUser_UsesFirstAt(t *testing.T) {
	u, err := NewChatUser("a@b@c")
	require.NoError(t, err)
	require.Equal(t, "a", u.DisplayName)
}

func TestLocalPart_Malformed(t *testing.T) {
	for _, username := range []string{"alice", "", "@example.com"} {
		_, err := LocalPart(username)
		require.ErrorIs(t, err, ErrMalformedIdentity, "username %q", username)
	}
}

func TestChatUser_SameUserIgnoresDisplayName(t *testing.T) {
	a := ChatUser{Username: "bob@x.com", DisplayName: "bob"}
	b := ChatUser{Username: "bob@x.com", DisplayName: "Bobby"}
	require.True(t, a.SameUser(b))
	require.False(t, a.SameUser(ChatUser{Username: "bo@x.com", DisplayName: "bob"}))
}

func TestNormalizeDisplayName(t *testing.T) {
	name, err := NormalizeDisplayName("  Bobby ")
	require.NoError(t, err)
	require.Equal(t, "Bobby", name)

	_, err = NormalizeDisplayName("   ")
	require.ErrorIs(t, err, ErrDisplayNameEmpty)

	_, err = NormalizeDisplayName(strings.Repeat("x", MaxDisplayNameLen+1))
	require.ErrorIs(t, err, ErrDisplayNameTooLong)

	_, err = NormalizeDisplayName("bob\xff")
	require.ErrorIs(t, err, ErrDisplayNameInvalid)

	// rune count, not bytes
	name, err = NormalizeDisplayName(strings.Repeat("é", MaxDisplayNameLen))
	require.NoError(t, err)
	require.Equal(t, MaxDisplayNameLen, len([]rune(name)))
}

func TestNewPublicMessage(t *testing.T) {
	sender := ChatUser{Username: "bob@x.com", DisplayName: "bob"}

	msg, err := NewPublicMessage("hi all", sender)
	require.NoError(t, err)
	require.Equal(t, PublicMessage{Body: "hi all", Sender: sender}, msg)

	_, err = NewPublicMessage(" \n", sender)
	require.ErrorIs(t, err, ErrMessageEmpty)

	_, err = NewPublicMessage(strings.Repeat("a", MaxMessageLen+1), sender)
	require.ErrorIs(t, err, ErrMessageTooLong)

	_, err = NewPublicMessage("hi \xc3\x28", sender)
	require.ErrorIs(t, err, ErrMessageInvalid)
}
