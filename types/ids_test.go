package types_test

import (
	"testing"

	"github.com/stratastream/stateful/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointIDOrdering(t *testing.T) {
	a := types.NewCheckpointID(1, 9)
	b := types.NewCheckpointID(1, 10)
	c := types.NewCheckpointID(2, 0)

	assert.True(t, b.Newer(a))
	assert.True(t, c.Newer(b))
	assert.False(t, a.Newer(a))
	assert.False(t, a.Newer(c))
	assert.True(t, a.Newer(types.EmptyCheckpointID))
	assert.False(t, types.EmptyCheckpointID.Newer(a))
	assert.Equal(t, uint64(2), c.Generation())
	assert.Equal(t, "<from-scratch>", types.EmptyCheckpointID.String())
}

func TestParseCheckpointID(t *testing.T) {
	id := types.NewCheckpointID(1700000000000000000, 42)
	parsed, err := types.ParseCheckpointID(string(id))
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = types.ParseCheckpointID("")
	require.NoError(t, err)
	assert.True(t, parsed.IsEmpty())

	for _, bad := range []string{"ck1", "1-2", "0000000000000000000a-0000000001"} {
		_, err := types.ParseCheckpointID(bad)
		assert.Error(t, err, bad)
	}
}
