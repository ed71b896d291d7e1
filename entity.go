package stockroom

import "fmt"

// Entity names a conceptual row across its whole lifetime.
//
// The index may be recycled after a despawn, but the generation is bumped
// each time it is, so a stale handle never resolves to the new occupant.
// Generations start at 1, which keeps the zero Entity permanently dead.
type Entity struct {
	index      uint32
	generation uint32
}

// EntityFromBits rebuilds a handle from the packed form returned by Bits.
func EntityFromBits(bits uint64) Entity {
	return Entity{
		index:      uint32(bits),
		generation: uint32(bits >> 32),
	}
}

// Index returns the recyclable slot number of the entity.
func (e Entity) Index() uint32 {
	return e.index
}

// Generation returns how many times the index had been recycled when this
// handle was issued, offset by one.
func (e Entity) Generation() uint32 {
	return e.generation
}

// Bits packs the handle as generation<<32 | index.
func (e Entity) Bits() uint64 {
	return uint64(e.generation)<<32 | uint64(e.index)
}

func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.index, e.generation)
}

// EntityLocation is where a live entity's data currently sits.
type EntityLocation struct {
	ArchetypeID  ArchetypeID
	TableID      TableID
	ArchetypeRow uint32
	TableRow     uint32
}
