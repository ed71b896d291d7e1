package stockroom

import (
	"fmt"
	"math"
	"sync/atomic"
)

// maxEntities is the size of the index space; index math.MaxUint32 is never issued.
const maxEntities = math.MaxUint32

type entitySlot struct {
	generation uint32
	alive      bool
}

// entityAllocator issues (index, generation) pairs and recycles freed
// indices. Everything except reserve requires exclusive access.
type entityAllocator struct {
	slots []entitySlot
	freeList []uint32
	live  int

	// freeCursor is len(freeList) when nothing is reserved. reserve hands out
	// freeList[cursor-1] and counts down; once negative it counts fresh indices
	// past the end of slots.
	freeCursor atomic.Int64
}

func (a *entityAllocator) allocate() Entity {
	if n := len(a.freeList); n > 0 {
		index := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.freeCursor.Store(int64(len(a.freeList)))
		slot := &a.slots[index]
		slot.alive = true
		a.live++
		return Entity{index: index, generation: slot.generation}
	}
	index := a.grow(1)
	return Entity{index: index, generation: 1}
}

// grow appends n live slots and returns the first new index.
func (a *entityAllocator) grow(n int) uint32 {
	if uint64(len(a.slots))+uint64(n) > maxEntities {
		panic(fmt.Sprintf("stockroom: entity index space exhausted (%d indices)", uint64(maxEntities)))
	}
	first := uint32(len(a.slots))
	for range n {
		a.slots = append(a.slots, entitySlot{generation: 1, alive: true})
	}
	a.live += n
	return first
}

// free releases e's index. A generation that cannot be bumped without
// wrapping retires the index for good.
func (a *entityAllocator) free(e Entity) bool {
	if !a.isAlive(e) {
		return false
	}
	slot := &a.slots[e.index]
	slot.alive = false
	a.live--
	if slot.generation == math.MaxUint32 {
		return true
	}
	slot.generation++
	a.freeList = append(a.freeList, e.index)
	a.freeCursor.Store(int64(len(a.freeList)))
	return true
}

func (a *entityAllocator) isAlive(e Entity) bool {
	if int(e.index) >= len(a.slots) {
		return false
	}
	slot := a.slots[e.index]
	return slot.alive && slot.generation == e.generation
}

// reserve hands out an id without touching storage. Safe for concurrent use
// with other reserve calls and with readers.
func (a *entityAllocator) reserve() Entity {
	n := a.freeCursor.Add(-1)
	if n >= 0 {
		index := a.freeList[n]
		return Entity{index: index, generation: a.slots[index].generation}
	}
	fresh := int64(len(a.slots)) - n - 1
	if fresh >= maxEntities {
		panic(fmt.Sprintf("stockroom: entity index space exhausted (%d indices)", uint64(maxEntities)))
	}
	return Entity{index: uint32(fresh), generation: 1}
}

func (a *entityAllocator) pending() bool {
	return a.freeCursor.Load() != int64(len(a.freeList))
}

// flush turns every reserved id into a live one and reports each to fn.
func (a *entityAllocator) flush(fn func(Entity)) {
	cursor := a.freeCursor.Load()
	if cursor == int64(len(a.freeList)) {
		return
	}
	start := int(max(cursor, 0))
	for _, index := range a.freeList[start:] {
		slot := &a.slots[index]
		slot.alive = true
		a.live++
		fn(Entity{index: index, generation: slot.generation})
	}
	a.freeList = a.freeList[:start]
	if cursor < 0 {
		n := int(-cursor)
		first := a.grow(n)
		for i := range n {
			fn(Entity{index: first + uint32(i), generation: 1})
		}
	}
	a.freeCursor.Store(int64(len(a.freeList)))
}

type locationSlot struct {
	entity   Entity
	location EntityLocation
	occupied bool
}

// locationTable maps live handles to storage locations. It trusts its
// callers: set overwrites unconditionally and only grows the backing slice.
type locationTable struct {
	slots []locationSlot
}

func (t *locationTable) get(e Entity) (EntityLocation, bool) {
	if int(e.index) >= len(t.slots) {
		return EntityLocation{}, false
	}
	slot := &t.slots[e.index]
	if !slot.occupied || slot.entity != e {
		return EntityLocation{}, false
	}
	return slot.location, true
}

// ref returns the live slot for e, or nil.
func (t *locationTable) ref(e Entity) *EntityLocation {
	if int(e.index) >= len(t.slots) {
		return nil
	}
	slot := &t.slots[e.index]
	if !slot.occupied || slot.entity != e {
		return nil
	}
	return &slot.location
}

func (t *locationTable) set(e Entity, loc EntityLocation) {
	if need := int(e.index) + 1; need > len(t.slots) {
		if need <= cap(t.slots) {
			t.slots = t.slots[:need]
		} else {
			grown := make([]locationSlot, need, max(need, 2*cap(t.slots)))
			copy(grown, t.slots)
			t.slots = grown
		}
	}
	t.slots[e.index] = locationSlot{entity: e, location: loc, occupied: true}
}

func (t *locationTable) remove(e Entity) {
	if int(e.index) >= len(t.slots) {
		return
	}
	if slot := &t.slots[e.index]; slot.entity == e {
		*slot = locationSlot{}
	}
}
