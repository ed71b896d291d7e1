package stockroom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSparseSetInsertRemove tests dense packing and index repair on removal
func TestSparseSetInsertRemove(t *testing.T) {
	set := newTypedSparseSet[Health]().(*typedSparseSet[Health])

	a, b, c := Entity{3, 1}, Entity{10, 1}, Entity{7, 2}
	set.insert(a, Health{Current: 1})
	set.insert(b, Health{Current: 2})
	set.insert(c, Health{Current: 3})
	require.Equal(t, 3, set.len())

	set.insert(b, Health{Current: 20})
	assert.Equal(t, 3, set.len(), "overwrite must not grow the set")
	assert.Equal(t, 20, set.get(b).Current)

	require.True(t, set.remove(a, true))
	assert.False(t, set.has(a))
	assert.Equal(t, 2, set.len())
	assert.Equal(t, 20, set.get(b).Current)
	assert.Equal(t, 3, set.get(c).Current, "moved entry still resolves")

	assert.False(t, set.remove(a, true), "second removal is a no-op")
	assert.False(t, set.has(Entity{7, 1}), "stale generation must not resolve")
	assert.Nil(t, set.get(Entity{99, 1}))
}

// TestSparseSetDrops tests drop hooks on remove and clear
func TestSparseSetDrops(t *testing.T) {
	set := newTypedSparseSet[handle]().(*typedSparseSet[handle])
	released := 0
	for i := range 4 {
		set.insert(Entity{uint32(i), 1}, handle{released: &released})
	}

	set.remove(Entity{0, 1}, false)
	assert.Equal(t, 0, released)
	set.remove(Entity{1, 1}, true)
	assert.Equal(t, 1, released)
	set.drop(Entity{2, 1})
	assert.Equal(t, 2, released)

	set.clear(true)
	assert.Equal(t, 4, released)
	assert.Equal(t, 0, set.len())
	assert.False(t, set.has(Entity{3, 1}))
}
