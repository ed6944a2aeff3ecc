// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxUserIDLen = 64
	MaxNameLen   = 36
)

var (
	ErrDisplayNameEmpty = errors.New("display name empty")
	ErrNameTooLong      = errors.New("name too long")
	ErrUserIDTooLong    = errors.New("user id too long")
)

// UserID identifies a person across sessions; a reconnect keeps it.
type UserID string

func validateName(name string) error {
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}

// normalizeName trims whitespace the way the room schema did.
func normalizeName(name string) string {
	return strings.TrimSpace(name)
}
