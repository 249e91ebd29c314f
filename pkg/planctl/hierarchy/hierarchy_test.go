package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeParents maps item id to parent id; absent means no parent.
type fakeParents map[uint]uint

func (f fakeParents) ParentID(_ context.Context, itemID uint) (*uint, error) {
	parent, ok := f[itemID]
	if !ok {
		return nil, nil
	}
	return &parent, nil
}

func TestWouldCreateCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("self parent", func(t *testing.T) {
		service := NewService(fakeParents{})
		cycle, err := service.WouldCreateCycle(ctx, 1, 1)
		require.NoError(t, err)
		assert.True(t, cycle)
	})

	t.Run("direct swap", func(t *testing.T) {
		// 3 is already a child of 2; making 3 the parent of 2 loops.
		service := NewService(fakeParents{3: 2})
		cycle, err := service.WouldCreateCycle(ctx, 2, 3)
		require.NoError(t, err)
		assert.True(t, cycle)
	})

	t.Run("deep chain", func(t *testing.T) {
		// 5 -> 4 -> 3 -> 2; attaching 2 under 5 closes the loop.
		service := NewService(fakeParents{5: 4, 4: 3, 3: 2})
		cycle, err := service.WouldCreateCycle(ctx, 2, 5)
		require.NoError(t, err)
		assert.True(t, cycle)
	})

	t.Run("unrelated parent is fine", func(t *testing.T) {
		service := NewService(fakeParents{5: 4, 4: 3})
		cycle, err := service.WouldCreateCycle(ctx, 9, 5)
		require.NoError(t, err)
		assert.False(t, cycle)
	})

	t.Run("parentless proposed parent is fine", func(t *testing.T) {
		service := NewService(fakeParents{})
		cycle, err := service.WouldCreateCycle(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, cycle)
	})

	t.Run("pre-existing cycle elsewhere does not block", func(t *testing.T) {
		// 7 <-> 8 is corrupt data that predates this assignment; the walk
		// must terminate and let the unrelated operation go through.
		service := NewService(fakeParents{7: 8, 8: 7})
		cycle, err := service.WouldCreateCycle(ctx, 1, 7)
		require.NoError(t, err)
		assert.False(t, cycle)
	})
}
