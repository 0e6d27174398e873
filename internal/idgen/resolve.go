package idgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrJarIDExhausted is returned when every attempted jar ID suffix is already
// taken. The parent should retry with a different name/age combination.
var ErrJarIDExhausted = errors.New("could not find a free jar ID")

// maxRandomRetries bounds the random-suffix loop after the fixed fallbacks.
const maxRandomRetries = 32

const hexUpper = "0123456789ABCDEF"

// ExistsFunc reports whether a jar ID is already taken. It is backed by a
// read-only lookup against the unique jar_id index.
type ExistsFunc func(jarID string) (bool, error)

// ResolveJarID turns a candidate jar ID into one that is not currently taken.
// It first tries the candidate itself, then the historical "1" and "2"
// suffix fallbacks (kept so IDs derived before the retry loop existed resolve
// the same way), then random suffixes until maxRandomRetries is reached.
//
// The storage layer still enforces uniqueness with a constraint on jar_id;
// this resolution only avoids conflicts, it does not guarantee absence of a
// concurrent insert.
func ResolveJarID(candidate string, exists ExistsFunc) (string, error) {
	if len(candidate) != JarIDLength {
		return "", fmt.Errorf("candidate jar ID %q is not %d characters", candidate, JarIDLength)
	}

	taken, err := exists(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to check jar ID %s: %w", candidate, err)
	}
	if !taken {
		return candidate, nil
	}

	prefix := candidate[:JarIDLength-1]
	for _, suffix := range []string{"1", "2"} {
		fallback := prefix + suffix
		taken, err := exists(fallback)
		if err != nil {
			return "", fmt.Errorf("failed to check jar ID %s: %w", fallback, err)
		}
		if !taken {
			return fallback, nil
		}
	}

	for i := 0; i < maxRandomRetries; i++ {
		suffix, err := randomHexChar()
		if err != nil {
			return "", fmt.Errorf("failed to generate jar ID suffix: %w", err)
		}
		attempt := prefix + suffix
		taken, err := exists(attempt)
		if err != nil {
			return "", fmt.Errorf("failed to check jar ID %s: %w", attempt, err)
		}
		if !taken {
			return attempt, nil
		}
	}

	return "", ErrJarIDExhausted
}

// randomHexChar picks one uppercase hex character with crypto/rand.
func randomHexChar() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(hexUpper))))
	if err != nil {
		return "", err
	}
	return string(hexUpper[n.Int64()]), nil
}
