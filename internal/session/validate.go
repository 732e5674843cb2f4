package session

import (
	"errors"
	"strings"
)

var (
	ErrEmptyNickname = errors.New("nickname is required")
	ErrEmptyCode     = errors.New("session code is required")
)

// ValidateNickname trims the nickname and rejects empty input before
// anything is sent to the authority.
func ValidateNickname(nick string) (string, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return "", ErrEmptyNickname
	}
	return nick, nil
}

// ValidateCode normalizes a session code the way codes are issued:
// trimmed and upper-cased. Empty or whitespace-only input is rejected.
func ValidateCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", ErrEmptyCode
	}
	return code, nil
}
