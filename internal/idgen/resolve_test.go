package idgen

import (
	"errors"
	"testing"
)

// takenSet builds an ExistsFunc over a fixed set of taken jar IDs.
func takenSet(ids ...string) ExistsFunc {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(jarID string) (bool, error) {
		return set[jarID], nil
	}
}

func TestResolveJarIDFree(t *testing.T) {
	got, err := ResolveJarID("A1B2C3", takenSet())
	if err != nil {
		t.Fatalf("ResolveJarID() error = %v", err)
	}
	if got != "A1B2C3" {
		t.Errorf("ResolveJarID() = %q, want original candidate", got)
	}
}

func TestResolveJarIDFirstFallback(t *testing.T) {
	got, err := ResolveJarID("A1B2C3", takenSet("A1B2C3"))
	if err != nil {
		t.Fatalf("ResolveJarID() error = %v", err)
	}
	if got != "A1B2C1" {
		t.Errorf("ResolveJarID() = %q, want %q", got, "A1B2C1")
	}
}

func TestResolveJarIDSecondFallback(t *testing.T) {
	got, err := ResolveJarID("A1B2C3", takenSet("A1B2C3", "A1B2C1"))
	if err != nil {
		t.Fatalf("ResolveJarID() error = %v", err)
	}
	if got != "A1B2C2" {
		t.Errorf("ResolveJarID() = %q, want %q", got, "A1B2C2")
	}
}

func TestResolveJarIDRandomSuffix(t *testing.T) {
	// Candidate and both fixed fallbacks taken; the resolver must fall back to
	// a random suffix on the same prefix.
	got, err := ResolveJarID("A1B2C3", takenSet("A1B2C3", "A1B2C1", "A1B2C2"))
	if err != nil {
		t.Fatalf("ResolveJarID() error = %v", err)
	}
	if got[:5] != "A1B2C" {
		t.Errorf("ResolveJarID() = %q, want prefix %q", got, "A1B2C")
	}
	if got == "A1B2C3" || got == "A1B2C1" || got == "A1B2C2" {
		t.Errorf("ResolveJarID() = %q, returned a taken ID", got)
	}
	if !ValidJarID(got) {
		t.Errorf("ResolveJarID() = %q, not a valid jar ID", got)
	}
}

func TestResolveJarIDExhausted(t *testing.T) {
	// Everything is taken.
	allTaken := func(string) (bool, error) { return true, nil }

	_, err := ResolveJarID("A1B2C3", allTaken)
	if !errors.Is(err, ErrJarIDExhausted) {
		t.Errorf("ResolveJarID() error = %v, want ErrJarIDExhausted", err)
	}
}

func TestResolveJarIDLookupError(t *testing.T) {
	lookupErr := errors.New("store unavailable")
	failing := func(string) (bool, error) { return false, lookupErr }

	_, err := ResolveJarID("A1B2C3", failing)
	if !errors.Is(err, lookupErr) {
		t.Errorf("ResolveJarID() error = %v, want wrapped lookup error", err)
	}
}

func TestResolveJarIDBadCandidate(t *testing.T) {
	if _, err := ResolveJarID("TOO_LONG_ID", takenSet()); err == nil {
		t.Error("ResolveJarID() accepted a candidate of the wrong length")
	}
}
