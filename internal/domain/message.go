package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const MaxMessageLen = 4096

var (
	ErrMessageEmpty   = errors.New("message empty")
	ErrMessageTooLong = errors.New("message too long")
	ErrMessageInvalid = errors.New("message is not valid UTF-8")
)

// PublicMessage is built per send and never stored.
type PublicMessage struct {
	Body   string   `json:"body"`
	Sender ChatUser `json:"sender"`
}

func NewPublicMessage(body string, sender ChatUser) (PublicMessage, error) {
	if !utf8.ValidString(body) {
		return PublicMessage{}, ErrMessageInvalid
	}
	if strings.TrimSpace(body) == "" {
		return PublicMessage{}, ErrMessageEmpty
	}
	if utf8.RuneCountInString(body) > MaxMessageLen {
		return PublicMessage{}, ErrMessageTooLong
	}
	return PublicMessage{Body: body, Sender: sender}, nil
}
