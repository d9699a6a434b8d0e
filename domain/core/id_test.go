package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

func TestParseConstituencyID(t *testing.T) {
	tests := []struct {
		input    string
		expected ConstituencyID
		hasError bool
	}{
		{"capital-central", "capital-central", false},
		{"  Capital-Central ", "capital-central", false},
		{"AC-042", "ac-042", false},
		{"", "", true},
		{"   ", "", true},
		{"two words", "", true},
		{"a/b", "", true},
	}

	for _, test := range tests {
		result, err := ParseConstituencyID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestFingerprintStable(t *testing.T) {
	type doc struct {
		A string
		B map[string]int
	}
	h1, err := Fingerprint(doc{A: "x", B: map[string]int{"b": 2, "a": 1}})
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := Fingerprint(doc{A: "x", B: map[string]int{"a": 1, "b": 2}})
	h3, _ := Fingerprint(doc{A: "y"})
	if h1 != h2 {
		t.Errorf("Expected equal fingerprints, got %s and %s", h1, h2)
	}
	if h1 == h3 {
		t.Error("Expected different values to fingerprint differently")
	}
	if len(h1.Short()) != 12 {
		t.Errorf("Expected 12-character short hash, got %q", h1.Short())
	}
}

func TestErrorClassification(t *testing.T) {
	unknown := NewUnknownConstituencyError("nowhere")
	if !IsNotFoundError(unknown) || !errors.Is(unknown, ErrUnknownConstituency) {
		t.Errorf("Expected unknown constituency to be a not-found error: %v", unknown)
	}
	if IsNotFoundError(ErrMalformedProfile) {
		t.Error("Malformed profile must not classify as not found")
	}

	malformed := NewMalformedError("total_voters", "must be positive, got %d", -1)
	if !IsMalformedError(malformed) {
		t.Errorf("Expected malformed error: %v", malformed)
	}
	var fe *FieldError
	if !errors.As(malformed, &fe) || fe.Field != "total_voters" {
		t.Errorf("Expected FieldError on total_voters, got %v", malformed)
	}

	unavailable := NewUnavailableError("record store", errors.New("connection refused"))
	if !IsUnavailableError(unavailable) || IsNotFoundError(unavailable) {
		t.Errorf("Expected unavailable error: %v", unavailable)
	}
}
