// Package credentials holds the PIN credential formats and verifiers.
//
// Parent savings PINs are stored as a fast unsalted digest; they gate
// sensitive actions inside an already-authenticated session, not login.
// Child PINs are the child's only login secret and sit in a 1,000,000-value
// space, so they get bcrypt with a per-record salt instead.
package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Kind identifies how a stored credential value is encoded.
type Kind string

const (
	// KindDigest is an unsalted sha256 hex digest of the PIN.
	KindDigest Kind = "digest"

	// KindLegacyPlaintext is a PIN stored in the clear by pre-migration
	// records. Verified for backward compatibility, never written anew.
	KindLegacyPlaintext Kind = "plaintext"
)

// Stored is a credential record on file for a parent. The Kind tag makes the
// legacy plaintext era an explicit variant rather than a fallback field.
type Stored struct {
	Kind  Kind
	Value string
}

// HasCredential reports whether any credential is on file.
func (s Stored) HasCredential() bool {
	return s.Value != ""
}

// DigestPIN returns the sha256 hex digest used for parent PIN storage.
func DigestPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// VerifyParentPIN checks a presented PIN against the stored parent
// credential. The caller is responsible for format validation; this only
// decides match or no match.
func VerifyParentPIN(presented string, rec Stored) bool {
	if !rec.HasCredential() {
		return false
	}

	switch rec.Kind {
	case KindDigest:
		digest := DigestPIN(presented)
		return subtle.ConstantTimeCompare([]byte(digest), []byte(rec.Value)) == 1
	case KindLegacyPlaintext:
		return subtle.ConstantTimeCompare([]byte(presented), []byte(rec.Value)) == 1
	default:
		return false
	}
}

// HashChildPIN hashes a child PIN with bcrypt at the default cost.
func HashChildPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}

// VerifyChildPIN checks a presented child PIN against its bcrypt hash.
func VerifyChildPIN(presented, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
}

// GeneratePIN generates a random 6-digit PIN for a child account.
func GeneratePIN() (string, error) {
	digits := make([]byte, 6)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
