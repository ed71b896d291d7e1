package stockroom

import (
	"iter"
	"slices"

	"github.com/TheBitDrifter/mask"
)

// ArchetypeID indexes World's archetype list. Archetype 0 is the empty
// archetype.
type ArchetypeID uint32

const emptyArchetypeID ArchetypeID = 0

// EdgeOp names the direction of an archetype transition.
type EdgeOp uint8

const (
	EdgeAdd EdgeOp = iota
	EdgeRemove
)

type edgeKey struct {
	op    EdgeOp
	delta mask.Mask
}

type archetypeEntity struct {
	entity   Entity
	tableRow uint32
}

// Archetype is the one place entities with exactly this component set live.
// Its identity is permanent; it is emptied but never destroyed.
type Archetype struct {
	id          ArchetypeID
	tableID     TableID
	mask        mask.Mask
	tableTypes  []ComponentTypeID
	sparseTypes []ComponentTypeID
	entities    []archetypeEntity
	edges       map[edgeKey]ArchetypeID
}

// archetypeDescription is a component set that may or may not have an
// archetype yet. Both id lists are sorted and free of duplicates.
type archetypeDescription struct {
	tableTypes  []ComponentTypeID
	sparseTypes []ComponentTypeID
}

func (d archetypeDescription) mask() mask.Mask {
	var m mask.Mask
	for _, id := range d.tableTypes {
		m.Mark(uint32(id))
	}
	for _, id := range d.sparseTypes {
		m.Mark(uint32(id))
	}
	return m
}

func (d archetypeDescription) tableMask() mask.Mask {
	var m mask.Mask
	for _, id := range d.tableTypes {
		m.Mark(uint32(id))
	}
	return m
}

func newArchetype(id ArchetypeID, tableID TableID, desc archetypeDescription) *Archetype {
	return &Archetype{
		id:          id,
		tableID:     tableID,
		mask:        desc.mask(),
		tableTypes:  desc.tableTypes,
		sparseTypes: desc.sparseTypes,
		edges:       make(map[edgeKey]ArchetypeID),
	}
}

func (a *Archetype) ID() ArchetypeID {
	return a.id
}

func (a *Archetype) TableID() TableID {
	return a.tableID
}

// Mask is the archetype's full signature, table and sparse components alike.
func (a *Archetype) Mask() mask.Mask {
	return a.mask
}

func (a *Archetype) Len() int {
	return len(a.entities)
}

// Entity returns the entity at archetype row.
func (a *Archetype) Entity(row int) Entity {
	return a.entities[row].entity
}

func (a *Archetype) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, ae := range a.entities {
			if !yield(ae.entity) {
				return
			}
		}
	}
}

// TableComponents lists the table-stored component ids in ascending order.
func (a *Archetype) TableComponents() []ComponentTypeID {
	return slices.Clone(a.tableTypes)
}

// SparseComponents lists the sparse-set component ids in ascending order.
func (a *Archetype) SparseComponents() []ComponentTypeID {
	return slices.Clone(a.sparseTypes)
}

func (a *Archetype) Contains(id ComponentTypeID) bool {
	if _, ok := slices.BinarySearch(a.tableTypes, id); ok {
		return true
	}
	_, ok := slices.BinarySearch(a.sparseTypes, id)
	return ok
}

// Matches reports whether ids, in any order, is exactly this archetype's
// component set.
func (a *Archetype) Matches(ids []ComponentTypeID) bool {
	var m mask.Mask
	for _, id := range ids {
		m.Mark(uint32(id))
	}
	return m == a.mask
}

func (a *Archetype) matchesDescription(desc archetypeDescription) bool {
	return slices.Equal(a.tableTypes, desc.tableTypes) && slices.Equal(a.sparseTypes, desc.sparseTypes)
}

// EdgeFor returns the cached target of adding or removing one component.
// A miss only means the transition has not been taken yet.
func (a *Archetype) EdgeFor(op EdgeOp, id ComponentTypeID) (ArchetypeID, bool) {
	var delta mask.Mask
	delta.Mark(uint32(id))
	return a.edge(op, delta)
}

func (a *Archetype) edge(op EdgeOp, delta mask.Mask) (ArchetypeID, bool) {
	target, ok := a.edges[edgeKey{op: op, delta: delta}]
	return target, ok
}

func (a *Archetype) setEdge(op EdgeOp, delta mask.Mask, target ArchetypeID) {
	a.edges[edgeKey{op: op, delta: delta}] = target
}

// describeWith returns this archetype's set plus the given components.
func (a *Archetype) describeWith(metas []*ComponentMeta) archetypeDescription {
	desc := archetypeDescription{
		tableTypes:  slices.Clone(a.tableTypes),
		sparseTypes: slices.Clone(a.sparseTypes),
	}
	for _, meta := range metas {
		switch meta.Storage {
		case StorageTable:
			desc.tableTypes = insertSorted(desc.tableTypes, meta.ID)
		case StorageSparseSet:
			desc.sparseTypes = insertSorted(desc.sparseTypes, meta.ID)
		}
	}
	return desc
}

// describeWithout returns this archetype's set minus the given mask.
func (a *Archetype) describeWithout(removed mask.Mask) archetypeDescription {
	keep := func(ids []ComponentTypeID) []ComponentTypeID {
		kept := make([]ComponentTypeID, 0, len(ids))
		for _, id := range ids {
			var bit mask.Mask
			bit.Mark(uint32(id))
			if !removed.ContainsAll(bit) {
				kept = append(kept, id)
			}
		}
		return kept
	}
	return archetypeDescription{
		tableTypes:  keep(a.tableTypes),
		sparseTypes: keep(a.sparseTypes),
	}
}

func insertSorted(ids []ComponentTypeID, id ComponentTypeID) []ComponentTypeID {
	idx, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, idx, id)
}

// allocate appends e and returns its archetype row.
func (a *Archetype) allocate(e Entity, tableRow uint32) uint32 {
	a.entities = append(a.entities, archetypeEntity{entity: e, tableRow: tableRow})
	return uint32(len(a.entities) - 1)
}

// swapRemove deletes row by moving the last entity into it and reports the
// entity now occupying row, if any.
func (a *Archetype) swapRemove(row int) (Entity, bool) {
	last := len(a.entities) - 1
	if row == last {
		a.entities = a.entities[:last]
		return Entity{}, false
	}
	a.entities[row] = a.entities[last]
	a.entities = a.entities[:last]
	return a.entities[row].entity, true
}

func (a *Archetype) clear() {
	a.entities = a.entities[:0]
}
