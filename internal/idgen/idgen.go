// Package idgen derives the identifiers used for child jar accounts: the
// internal child ID that keys the record, and the short jar ID a child types
// to log in.
package idgen

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const (
	// ChildIDLength is the length of a derived child ID in hex characters.
	ChildIDLength = 20

	// JarIDLength is the length of a jar ID in hex characters.
	JarIDLength = 6
)

// NormalizeName lowercases a child name and collapses whitespace runs to
// single underscores, so "Jane  Doe" and "JANE DOE" key the same account.
func NormalizeName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "_")
}

// DeriveChildID returns the stable identifier for a child account. The same
// parent and name always produce the same ID, which lets the provisioning
// flow detect "this parent already has a child with this name" with a direct
// key lookup.
func DeriveChildID(parentID, childName string) string {
	sum := sha256.Sum256([]byte(parentID + "_" + NormalizeName(childName)))
	return hex.EncodeToString(sum[:])[:ChildIDLength]
}

// DeriveJarID returns the candidate 6-character jar ID for a child. Jar IDs
// are short enough to collide at scale; callers must pass the result through
// ResolveJarID before persisting it.
func DeriveJarID(childName, parentID string, age int) string {
	sum := sha256.Sum256([]byte(NormalizeName(childName) + "_" + parentID + "_" + strconv.Itoa(age)))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:JarIDLength])
}

// ValidChildID reports whether s is a well-formed child ID: exactly 20
// lowercase hex characters.
func ValidChildID(s string) bool {
	if len(s) != ChildIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ValidJarID reports whether s is a well-formed jar ID: exactly 6 uppercase
// hex characters.
func ValidJarID(s string) bool {
	if len(s) != JarIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
