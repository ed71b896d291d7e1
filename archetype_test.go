package stockroom

import (
	"testing"

	"github.com/TheBitDrifter/mask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestArchetypeCreation tests the creation and reuse of archetypes
func TestArchetypeCreation(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name                string
		firstComponents     []ComponentValue
		secondComponents    []ComponentValue
		expectSameArchetype bool
	}{
		{
			name:                "Identical components",
			firstComponents:     []ComponentValue{posComp, velComp},
			secondComponents:    []ComponentValue{posComp, velComp},
			expectSameArchetype: true,
		},
		{
			name:                "Different order",
			firstComponents:     []ComponentValue{posComp, velComp},
			secondComponents:    []ComponentValue{velComp, posComp},
			expectSameArchetype: true,
		},
		{
			name:                "Different components",
			firstComponents:     []ComponentValue{posComp},
			secondComponents:    []ComponentValue{velComp},
			expectSameArchetype: false,
		},
		{
			name:                "Subset components",
			firstComponents:     []ComponentValue{posComp, velComp},
			secondComponents:    []ComponentValue{posComp},
			expectSameArchetype: false,
		},
		{
			name:                "Superset components",
			firstComponents:     []ComponentValue{posComp},
			secondComponents:    []ComponentValue{posComp, velComp, healthComp},
			expectSameArchetype: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := Factory.NewWorld()

			e1, err := world.Spawn(tt.firstComponents...)
			require.NoError(t, err)
			e2, err := world.Spawn(tt.secondComponents...)
			require.NoError(t, err)

			loc1, _ := world.EntityLocation(e1)
			loc2, _ := world.EntityLocation(e2)
			sameArchetype := loc1.ArchetypeID == loc2.ArchetypeID
			if sameArchetype != tt.expectSameArchetype {
				t.Errorf("Archetypes same: %v, expected: %v", sameArchetype, tt.expectSameArchetype)
			}
		})
	}
}

// TestArchetypeEdgeCache tests that a transition is computed once and then served from the cache
func TestArchetypeEdgeCache(t *testing.T) {
	world := Factory.NewWorld()
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()

	e1, err := world.Spawn(pos)
	require.NoError(t, err)
	before, _ := world.EntityLocation(e1)
	require.NoError(t, world.AddComponent(e1, vel))
	src, _ := world.EntityLocation(e1)
	generation := world.ArchetypesGeneration()
	count := world.ArchetypeCount()

	velMeta, ok := vel.Meta(world)
	require.True(t, ok)
	posArch, _ := world.Archetype(before.ArchetypeID)
	target, ok := posArch.EdgeFor(EdgeAdd, velMeta.ID)
	require.True(t, ok, "add edge recorded after the first transition")
	assert.Equal(t, src.ArchetypeID, target)

	e2, err := world.Spawn(pos)
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e2, vel))
	loc2, _ := world.EntityLocation(e2)
	assert.Equal(t, src.ArchetypeID, loc2.ArchetypeID)
	assert.Equal(t, generation, world.ArchetypesGeneration(), "cached transition must not create archetypes")
	assert.Equal(t, count, world.ArchetypeCount())

	require.NoError(t, world.RemoveComponent(e2, vel))
	both, _ := world.Archetype(src.ArchetypeID)
	back, ok := both.EdgeFor(EdgeRemove, velMeta.ID)
	require.True(t, ok)
	assert.Equal(t, before.ArchetypeID, back)
	loc2, _ = world.EntityLocation(e2)
	assert.Equal(t, back, loc2.ArchetypeID)
}

// TestArchetypeDescriptions tests the set arithmetic behind transitions
func TestArchetypeDescriptions(t *testing.T) {
	tableMeta := func(id ComponentTypeID) *ComponentMeta {
		return &ComponentMeta{ID: id, Storage: StorageTable}
	}
	sparseMeta := func(id ComponentTypeID) *ComponentMeta {
		return &ComponentMeta{ID: id, Storage: StorageSparseSet}
	}

	base := newArchetype(1, 1, archetypeDescription{
		tableTypes:  []ComponentTypeID{2, 5},
		sparseTypes: []ComponentTypeID{9},
	})

	with := base.describeWith([]*ComponentMeta{tableMeta(3), sparseMeta(7), tableMeta(5)})
	assert.Equal(t, []ComponentTypeID{2, 3, 5}, with.tableTypes)
	assert.Equal(t, []ComponentTypeID{7, 9}, with.sparseTypes)
	assert.Equal(t, []ComponentTypeID{2, 5}, base.TableComponents(), "source is not modified")

	var removed mask.Mask
	removed.Mark(5)
	removed.Mark(9)
	without := base.describeWithout(removed)
	assert.Equal(t, []ComponentTypeID{2}, without.tableTypes)
	assert.Empty(t, without.sparseTypes)

	assert.True(t, base.Matches([]ComponentTypeID{9, 5, 2}))
	assert.False(t, base.Matches([]ComponentTypeID{2, 5}))
	assert.True(t, base.Contains(9))
	assert.False(t, base.Contains(3))
}

// TestArchetypeSwapRemove tests the entity list bookkeeping
func TestArchetypeSwapRemove(t *testing.T) {
	arch := newArchetype(1, 0, archetypeDescription{})
	for i := range 3 {
		arch.allocate(Entity{uint32(i), 1}, uint32(i))
	}

	swapped, ok := arch.swapRemove(0)
	require.True(t, ok)
	assert.Equal(t, Entity{2, 1}, swapped)
	assert.Equal(t, Entity{2, 1}, arch.Entity(0))

	_, ok = arch.swapRemove(1)
	assert.False(t, ok)
	assert.Equal(t, 1, arch.Len())
}
