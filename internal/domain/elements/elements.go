// Package elements validates two-line orbital element sets and derives the
// booking-time snapshot hash that binds a pass to the elements it was
// scheduled against.
package elements

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// LineLength is the fixed width of each element line, checksum included.
const LineLength = 69

// Sentinel kinds for element-set validation errors.
var (
	ErrLineLength   = errors.New("element line must be exactly 69 characters")
	ErrLineNumber   = errors.New("element lines must start with '1' and '2'")
	ErrCatalogMatch = errors.New("element lines reference different catalog numbers")
	ErrChecksum     = errors.New("element line checksum mismatch")
	ErrUnparsable   = errors.New("element set does not parse")
)

// Set is a validated pair of element lines.
type Set struct {
	Line1 string
	Line2 string
}

// Validate checks both lines syntactically: fixed length, line identifiers,
// matching catalog numbers, and the mod-10 digit/sign checksum. It then runs
// a semantic parse so sets that are well-formed but meaningless are rejected
// before registration.
func Validate(line1, line2 string) (Set, error) {
	for i, line := range []string{line1, line2} {
		if len(line) != LineLength {
			return Set{}, fmt.Errorf("line %d: %w", i+1, ErrLineLength)
		}
	}
	if line1[0] != '1' || line2[0] != '2' {
		return Set{}, ErrLineNumber
	}
	if line1[2:7] != line2[2:7] {
		return Set{}, ErrCatalogMatch
	}
	for i, line := range []string{line1, line2} {
		if err := verifyChecksum(line); err != nil {
			return Set{}, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	if err := parse(line1, line2); err != nil {
		return Set{}, err
	}
	return Set{Line1: line1, Line2: line2}, nil
}

// verifyChecksum applies the classic two-line checksum: the sum of all digit
// characters plus one per minus sign over the first 68 columns, modulo 10,
// must equal the trailing digit.
func verifyChecksum(line string) error {
	sum := 0
	for _, c := range line[:LineLength-1] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	want := line[LineLength-1]
	if want < '0' || want > '9' || sum%10 != int(want-'0') {
		return ErrChecksum
	}
	return nil
}

// parse runs the element set through the SGP4 loader. The loader assumes
// pre-validated input and panics on garbage, so the panic is converted into
// a validation error here.
func parse(line1, line2 string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnparsable, r)
		}
	}()
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return fmt.Errorf("%w: sgp4 error %d", ErrUnparsable, sat.Error)
	}
	return nil
}

// SnapshotHash returns the hex sha256 digest of the element set. Passes store
// this at booking time so completion proofs can be checked against the exact
// elements used for scheduling.
func (s Set) SnapshotHash() string {
	h := sha256.Sum256([]byte(s.Line1 + "\n" + s.Line2))
	return hex.EncodeToString(h[:])
}

// SnapshotHashOf hashes raw lines without validating them.
func SnapshotHashOf(line1, line2 string) string {
	return Set{Line1: strings.TrimRight(line1, "\n"), Line2: strings.TrimRight(line2, "\n")}.SnapshotHash()
}

// Fresh reports whether an element set refreshed at updatedAt is still within
// the freshness window at now.
func Fresh(updatedAt, now time.Time, maxAge time.Duration) bool {
	return now.Sub(updatedAt) <= maxAge
}
