// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxDisplayNameLen = 36

var (
	ErrMalformedIdentity  = errors.New("malformed identity")
	ErrUnauthenticated    = errors.New("unauthenticated call")
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrDisplayNameInvalid = errors.New("display name is not valid UTF-8")
)

// ChatUser is a roster entry. Username is the identity and never changes;
// DisplayName is the label other clients render.
type ChatUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// NewChatUser derives the default display name from the username's local part.
func NewChatUser(username string) (ChatUser, error) {
	local, err := LocalPart(username)
	if err != nil {
		return ChatUser{}, err
	}
	return ChatUser{Username: username, DisplayName: local}, nil
}

// SameUser compares identities only.
func (u ChatUser) SameUser(other ChatUser) bool {
	return u.Username == other.Username
}

// LocalPart returns the part of username before the first '@'.
func LocalPart(username string) (string, error) {
	i := strings.IndexByte(username, '@')
	if i < 0 {
		return "", fmt.Errorf("%w: %q has no '@'", ErrMalformedIdentity, username)
	}
	if i == 0 {
		return "", fmt.Errorf("%w: %q has an empty local part", ErrMalformedIdentity, username)
	}
	return username[:i], nil
}

// NormalizeDisplayName trims the name and checks its length in runes.
func NormalizeDisplayName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", ErrDisplayNameInvalid
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrDisplayNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return "", ErrDisplayNameTooLong
	}
	return name, nil
}
