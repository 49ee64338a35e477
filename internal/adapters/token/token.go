// Package token adapts the external token-ownership capability used to
// represent a pass as a transferable asset. The engine mints, transfers,
// and burns ownership records here; it never does multi-asset bookkeeping
// itself.
package token

import (
	"errors"
	"fmt"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/google/uuid"
)

// Sentinel kinds for ownership-record errors.
var (
	ErrUnknownToken = errors.New("unknown ownership record")
	ErrNotOwner     = errors.New("caller does not own the record")
)

// Registry is the external ownership interface the engine calls into.
type Registry interface {
	// Mint issues a new ownership record for a pass and returns its id.
	Mint(pass types.PassID, owner types.Identity) (string, error)
	// Transfer moves the record to a new owner; only the current owner may.
	Transfer(tokenID string, from, to types.Identity) error
	// Burn destroys the record, e.g. on cancellation.
	Burn(tokenID string) error
	// OwnerOf resolves the current owner.
	OwnerOf(tokenID string) (types.Identity, error)
}

// Memory implements Registry in process for tests and single-node runs.
type Memory struct {
	owners map[string]types.Identity
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{owners: make(map[string]types.Identity)}
}

// Mint implements Registry.
func (m *Memory) Mint(pass types.PassID, owner types.Identity) (string, error) {
	id := fmt.Sprintf("pass-%d-%s", pass, uuid.NewString())
	m.owners[id] = owner
	return id, nil
}

// Transfer implements Registry.
func (m *Memory) Transfer(tokenID string, from, to types.Identity) error {
	owner, ok := m.owners[tokenID]
	if !ok {
		return fmt.Errorf("%q: %w", tokenID, ErrUnknownToken)
	}
	if owner != from {
		return fmt.Errorf("%q owned by %s: %w", tokenID, owner, ErrNotOwner)
	}
	m.owners[tokenID] = to
	return nil
}

// Burn implements Registry.
func (m *Memory) Burn(tokenID string) error {
	if _, ok := m.owners[tokenID]; !ok {
		return fmt.Errorf("%q: %w", tokenID, ErrUnknownToken)
	}
	delete(m.owners, tokenID)
	return nil
}

// OwnerOf implements Registry.
func (m *Memory) OwnerOf(tokenID string) (types.Identity, error) {
	owner, ok := m.owners[tokenID]
	if !ok {
		return "", fmt.Errorf("%q: %w", tokenID, ErrUnknownToken)
	}
	return owner, nil
}
