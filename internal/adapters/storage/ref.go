// Package storage validates content identifiers pointing into the external
// content-addressed storage service. The engine only stores and compares
// these identifiers; it never interprets blob contents.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Identifier length bounds. Covers CIDv0 (46 chars) through long CIDv1.
const (
	minRefLength = 32
	maxRefLength = 128
)

// ErrInvalidRef marks a malformed content identifier.
var ErrInvalidRef = errors.New("invalid content identifier")

// ValidateRef checks an identifier's shape: a recognized prefix, bounded
// length, and a base58/base32-safe alphabet. Content retrieval and pinning
// are the storage service's concern.
func ValidateRef(ref string) error {
	if len(ref) < minRefLength || len(ref) > maxRefLength {
		return fmt.Errorf("length %d: %w", len(ref), ErrInvalidRef)
	}
	if !strings.HasPrefix(ref, "Qm") && !strings.HasPrefix(ref, "bafy") && !strings.HasPrefix(ref, "ipfs://") {
		return fmt.Errorf("%q: %w", truncate(ref), ErrInvalidRef)
	}
	body := strings.TrimPrefix(ref, "ipfs://")
	for _, c := range body {
		if !isRefChar(c) {
			return fmt.Errorf("character %q: %w", c, ErrInvalidRef)
		}
	}
	return nil
}

func isRefChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return false
}

func truncate(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
