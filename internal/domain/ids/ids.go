// Package ids mints and validates the public identifiers used in API URLs.
// Entity rows keep UUID primary keys; stories additionally carry a ULID so
// public links sort by creation time.
package ids

import (
	"crypto/rand"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

	ErrInvalidULID = errors.New("invalid ULID")
	ErrInvalidUUID = errors.New("invalid UUID")
)

// NewULID generates a new ULID string.
func NewULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ValidateULID checks that value is a well-formed ULID.
func ValidateULID(value string) error {
	if !ulidRegex.MatchString(value) {
		return ErrInvalidULID
	}
	return nil
}

// ParseUUID parses a UUID path or body parameter.
func ParseUUID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, ErrInvalidUUID
	}
	return id, nil
}
