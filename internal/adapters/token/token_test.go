package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/token"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

func TestOwnershipRecordLifecycle(t *testing.T) {
	reg := token.NewMemory()

	id, err := reg.Mint(types.PassID(7), "alice")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	owner, err := reg.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, types.Identity("alice"), owner)

	// Only the current owner may transfer.
	assert.ErrorIs(t, reg.Transfer(id, "mallory", "bob"), token.ErrNotOwner)

	require.NoError(t, reg.Transfer(id, "alice", "bob"))
	owner, err = reg.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, types.Identity("bob"), owner)

	require.NoError(t, reg.Burn(id))
	_, err = reg.OwnerOf(id)
	assert.ErrorIs(t, err, token.ErrUnknownToken)
	assert.ErrorIs(t, reg.Burn(id), token.ErrUnknownToken)
}

func TestUnknownRecord(t *testing.T) {
	reg := token.NewMemory()
	assert.ErrorIs(t, reg.Transfer("missing", "a", "b"), token.ErrUnknownToken)
}
