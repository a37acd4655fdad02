// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidSessionID = errors.New("invalid session id")
)

// MaxSessionIDLen bounds client-supplied session identifiers
const MaxSessionIDLen = 128

// JoinCodeLen is the length of the short code participants type to join
const JoinCodeLen = 6

// GenerateID creates a random UUID string for database records
func GenerateID() string {
	return uuid.NewString()
}

// NormalizeSessionID trims the client-supplied session identifier and checks it.
// An absent session identifier is valid and stays empty.
func NormalizeSessionID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if len(id) > MaxSessionIDLen {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidSessionID, MaxSessionIDLen)
	}
	for i := 0; i < len(id); i++ {
		if !isSessionChar(id[i]) {
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidSessionID, id[i])
		}
	}
	return id, nil
}

func isSessionChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c == '-', c == '_', c == '.':
		return true
	}
	return false
}

// GenerateJoinCode creates a short uppercase alphanumeric code for joining a survey
func GenerateJoinCode() (string, error) {
	const joinCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	b := make([]byte, JoinCodeLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate join code: %w", err)
	}
	for i := range b {
		b[i] = joinCodeChars[int(b[i])%len(joinCodeChars)]
	}
	return string(b), nil
}
