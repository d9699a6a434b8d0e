package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ConstituencyID ID
	SnapshotID     ID
)

// String conversions for domain IDs
func (id ConstituencyID) String() string { return ID(id).String() }
func (id SnapshotID) String() string     { return ID(id).String() }

// NewSnapshotID returns a time-ordered identifier for a persisted strategy snapshot.
func NewSnapshotID() SnapshotID {
	return SnapshotID(NewID())
}

// ParseConstituencyID normalizes and validates a constituency identifier.
// Identifiers are case-insensitive and stored lower-case.
func ParseConstituencyID(s string) (ConstituencyID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("constituency ID cannot be empty")
	}
	if strings.ContainsAny(s, " \t\n/") {
		return "", fmt.Errorf("constituency ID %q contains invalid characters", s)
	}
	return ConstituencyID(s), nil
}
