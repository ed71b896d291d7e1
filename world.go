package stockroom

import (
	"iter"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// WorldID identifies a World for logs and for callers juggling several.
type WorldID uuid.UUID

func (id WorldID) String() string {
	return uuid.UUID(id).String()
}

// InsertMode decides what Insert does with components the entity already has.
type InsertMode uint8

const (
	// Replace overwrites existing values in place, dropping the old ones.
	Replace InsertMode = iota
	// Keep leaves existing values untouched.
	Keep
)

// World owns every entity, archetype, table and component store.
//
// A World has a single writer. Pointers handed out by component accessors
// stay valid only until the next structural change (spawn, insert of a new
// component, remove, despawn, clear). While a Cursor iterates, or any lock
// bit is set, structural changes fail with LockedWorldError; the Enqueue
// variants defer them until the last lock is released.
type World struct {
	id     WorldID
	log    zerolog.Logger
	events WorldEvents

	initialCapacity int

	registry  *Registry
	entities  entityAllocator
	locations locationTable

	tables     []*Table
	tableIndex map[mask.Mask]TableID

	archetypes          []*Archetype
	archetypeIndex      map[mask.Mask]ArchetypeID
	archetypeGeneration uint64

	sparse  []sparseSet
	removed map[ComponentTypeID][]Entity

	locks   mask.Mask
	cursors int
	opQueue opQueue
}

func newWorld(cfg config) *World {
	id := WorldID(cfg.idSource())
	w := &World{
		id:              id,
		log:             cfg.logger.With().Str("world", id.String()).Logger(),
		events:          cfg.events,
		initialCapacity: cfg.initialCapacity,
		registry:        newRegistry(),
		tableIndex:      make(map[mask.Mask]TableID),
		archetypeIndex:  make(map[mask.Mask]ArchetypeID),
		removed:         make(map[ComponentTypeID][]Entity),
		opQueue:         newOpQueue(),
	}
	empty := newTable(emptyTableID, nil, cfg.initialCapacity)
	w.tables = append(w.tables, empty)
	w.tableIndex[empty.mask] = emptyTableID

	root := newArchetype(emptyArchetypeID, emptyTableID, archetypeDescription{})
	w.archetypes = append(w.archetypes, root)
	w.archetypeIndex[root.mask] = emptyArchetypeID
	return w
}

func (w *World) ID() WorldID {
	return w.id
}

func (w *World) Registry() *Registry {
	return w.registry
}

// Register records c's type with the world's registry.
func (w *World) Register(c Component) (ComponentMeta, error) {
	return w.registry.Register(c)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.live
}

func (w *World) Locked() bool {
	return w.cursors > 0 || w.locks != (mask.Mask{})
}

// AddLock sets one lock bit. Different subsystems use different bits so
// they can hold the world independently.
func (w *World) AddLock(bit uint32) {
	w.locks.Mark(bit)
}

// RemoveLock clears a lock bit; when no lock remains the queued operations
// are applied.
func (w *World) RemoveLock(bit uint32) {
	w.locks.Unmark(bit)
	w.releaseLock()
}

func (w *World) releaseLock() {
	if !w.Locked() {
		w.processOperationQueue()
	}
}

// ReserveEntity issues a handle without touching storage. It may be called
// concurrently with itself and with plain reads such as Get and Contains,
// but not with Flush, which every structural change and the start of a
// Cursor iteration perform. The entity becomes live, with no components,
// on that next Flush.
func (w *World) ReserveEntity() Entity {
	return w.entities.reserve()
}

// Flush materializes reserved entities. Mutating operations flush on their
// own; a locked world is left alone.
func (w *World) Flush() {
	if w.Locked() || !w.entities.pending() {
		return
	}
	root := w.archetypes[emptyArchetypeID]
	tbl := w.tables[root.tableID]
	w.entities.flush(func(e Entity) {
		row := tbl.allocateRow(e)
		archRow := root.allocate(e, uint32(row))
		w.locations.set(e, EntityLocation{
			ArchetypeID:  emptyArchetypeID,
			TableID:      root.tableID,
			ArchetypeRow: archRow,
			TableRow:     uint32(row),
		})
	})
}

// Spawn creates an entity holding values. Later values win over earlier
// ones of the same type.
func (w *World) Spawn(values ...ComponentValue) (Entity, error) {
	if w.Locked() {
		return Entity{}, LockedWorldError{}
	}
	w.Flush()
	b, err := w.resolveBundle(values)
	if err != nil {
		return Entity{}, bark.AddTrace(err)
	}
	e := w.entities.allocate()
	w.newBundleInserter(w.archetypes[emptyArchetypeID], b, Replace).spawn(e)
	return e, nil
}

// SpawnBatch creates n entities that all start with the same values.
func (w *World) SpawnBatch(n int, values ...ComponentValue) ([]Entity, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	if n <= 0 {
		return nil, nil
	}
	w.Flush()
	b, err := w.resolveBundle(values)
	if err != nil {
		return nil, bark.AddTrace(err)
	}
	ins := w.newBundleInserter(w.archetypes[emptyArchetypeID], b, Replace)
	w.tables[ins.dst.tableID].reserve(n)
	entities := make([]Entity, n)
	for i := range entities {
		e := w.entities.allocate()
		ins.spawn(e)
		entities[i] = e
	}
	return entities, nil
}

// SpawnBundles creates one entity per value set, in order. Value sets with
// the same component types resolve their archetype once. Every set is
// checked before any entity is created.
func (w *World) SpawnBundles(bundles ...[]ComponentValue) ([]Entity, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	if len(bundles) == 0 {
		return nil, nil
	}
	w.Flush()
	resolved := make([]bundle, len(bundles))
	counts := make(map[mask.Mask]int)
	for i, values := range bundles {
		b, err := w.resolveBundle(values)
		if err != nil {
			return nil, bark.AddTrace(err)
		}
		resolved[i] = b
		counts[b.mask]++
	}

	root := w.archetypes[emptyArchetypeID]
	inserters := make(map[mask.Mask]bundleInserter, len(counts))
	entities := make([]Entity, len(resolved))
	for i, b := range resolved {
		ins, ok := inserters[b.mask]
		if !ok {
			ins = w.newBundleInserter(root, b, Replace)
			w.tables[ins.dst.tableID].reserve(counts[b.mask])
			inserters[b.mask] = ins
		}
		ins.b = b
		e := w.entities.allocate()
		ins.spawn(e)
		entities[i] = e
	}
	return entities, nil
}

// Reserve makes room for n more entities with exactly the given components,
// creating their archetype and table if needed.
func (w *World) Reserve(n int, components ...Component) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	var delta mask.Mask
	metas := make([]*ComponentMeta, 0, len(components))
	for _, c := range components {
		meta, err := w.registry.register(c)
		if err != nil {
			return bark.AddTrace(err)
		}
		if hasBit(delta, meta.ID) {
			continue
		}
		delta.Mark(uint32(meta.ID))
		metas = append(metas, meta)
	}
	arch := w.transitionTarget(w.archetypes[emptyArchetypeID], EdgeAdd, delta, metas)
	if n > 0 {
		w.tables[arch.tableID].reserve(n)
	}
	return nil
}

// Insert adds values to e. Components e already has are overwritten or
// kept according to mode; new ones move e to a new archetype.
func (w *World) Insert(e Entity, mode InsertMode, values ...ComponentValue) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	w.Flush()
	loc, ok := w.locations.get(e)
	if !ok {
		return eris.Wrapf(ErrEntityDoesNotExist, "insert into %v", e)
	}
	if len(values) == 0 {
		return eris.Wrapf(ErrEmptyBundle, "insert into %v", e)
	}
	b, err := w.resolveBundle(values)
	if err != nil {
		return bark.AddTrace(err)
	}
	w.insertBundle(e, loc, b, mode)
	return nil
}

// AddComponent inserts a single value, replacing an existing one.
func (w *World) AddComponent(e Entity, value ComponentValue) error {
	return w.Insert(e, Replace, value)
}

// Remove drops the given components from e. Components e does not have are
// skipped; a dead e is an error.
func (w *World) Remove(e Entity, components ...Component) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	w.Flush()
	loc, ok := w.locations.get(e)
	if !ok {
		return eris.Wrapf(ErrEntityDoesNotExist, "remove from %v", e)
	}
	w.removeBundle(e, loc, w.knownMetas(components), true)
	return nil
}

func (w *World) RemoveComponent(e Entity, c Component) error {
	return w.Remove(e, c)
}

// Despawn drops every component of e and frees its id. It reports whether
// e was alive. Despawning while the world is locked panics; use
// EnqueueDespawn instead.
func (w *World) Despawn(e Entity) bool {
	if w.Locked() {
		panic(LockedWorldError{})
	}
	w.Flush()
	loc, ok := w.locations.get(e)
	if !ok {
		return false
	}
	w.despawnAt(e, loc)
	return true
}

// DestroyEntities despawns every live entity given and skips the rest.
func (w *World) DestroyEntities(entities ...Entity) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	for _, e := range entities {
		w.Despawn(e)
	}
	return nil
}

// Clear despawns every entity. Archetypes and tables stay allocated.
func (w *World) Clear() error {
	if w.Locked() {
		return LockedWorldError{}
	}
	w.Flush()
	for _, arch := range w.archetypes {
		for _, ae := range arch.entities {
			w.trackRemoved(ae.entity, arch.tableTypes)
			w.trackRemoved(ae.entity, arch.sparseTypes)
			w.locations.remove(ae.entity)
			w.entities.free(ae.entity)
		}
		arch.clear()
	}
	for _, tbl := range w.tables {
		tbl.clear(true)
	}
	for _, set := range w.sparse {
		if set != nil {
			set.clear(true)
		}
	}
	return nil
}

// Contains reports whether e is alive.
func (w *World) Contains(e Entity) bool {
	_, ok := w.locations.get(e)
	return ok
}

// HasComponent reports whether e is alive and has c.
func (w *World) HasComponent(e Entity, c Component) bool {
	loc, ok := w.locations.get(e)
	if !ok {
		return false
	}
	meta, ok := w.registry.lookup(c.componentSpec().typ)
	if !ok {
		return false
	}
	return w.archetypes[loc.ArchetypeID].Contains(meta.ID)
}

func (w *World) EntityLocation(e Entity) (EntityLocation, bool) {
	return w.locations.get(e)
}

// EntityComponentTypes describes e's table-stored components.
func (w *World) EntityComponentTypes(e Entity) ([]ComponentMeta, bool) {
	loc, ok := w.locations.get(e)
	if !ok {
		return nil, false
	}
	return w.describe(w.archetypes[loc.ArchetypeID].tableTypes), true
}

// EntitySparseTypes describes e's sparse-set components.
func (w *World) EntitySparseTypes(e Entity) ([]ComponentMeta, bool) {
	loc, ok := w.locations.get(e)
	if !ok {
		return nil, false
	}
	return w.describe(w.archetypes[loc.ArchetypeID].sparseTypes), true
}

func (w *World) describe(ids []ComponentTypeID) []ComponentMeta {
	metas := make([]ComponentMeta, len(ids))
	for i, id := range ids {
		metas[i] = *w.registry.metas[id]
	}
	return metas
}

// Entities yields every live entity, archetype by archetype. The world must
// not be changed structurally while iterating.
func (w *World) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, arch := range w.archetypes {
			for _, ae := range arch.entities {
				if !yield(ae.entity) {
					return
				}
			}
		}
	}
}

func (w *World) Archetypes() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, arch := range w.archetypes {
			if !yield(arch) {
				return
			}
		}
	}
}

func (w *World) Archetype(id ArchetypeID) (*Archetype, bool) {
	if int(id) >= len(w.archetypes) {
		return nil, false
	}
	return w.archetypes[id], true
}

func (w *World) ArchetypeCount() int {
	return len(w.archetypes)
}

func (w *World) Tables() iter.Seq[*Table] {
	return func(yield func(*Table) bool) {
		for _, tbl := range w.tables {
			if !yield(tbl) {
				return
			}
		}
	}
}

func (w *World) Table(id TableID) (*Table, bool) {
	if int(id) >= len(w.tables) {
		return nil, false
	}
	return w.tables[id], true
}

func (w *World) TableCount() int {
	return len(w.tables)
}

// ArchetypesGeneration changes every time an archetype is created. Plans
// derived from Archetypes are stale once it moves.
func (w *World) ArchetypesGeneration() uint64 {
	return w.archetypeGeneration
}

// Removed lists entities that lost c (by remove or despawn) since the last
// ClearTrackers.
func (w *World) Removed(c Component) []Entity {
	meta, ok := w.registry.lookup(c.componentSpec().typ)
	if !ok {
		return nil
	}
	return w.removed[meta.ID]
}

func (w *World) ClearTrackers() {
	for id, entities := range w.removed {
		w.removed[id] = entities[:0]
	}
}

func (w *World) trackRemoved(e Entity, ids []ComponentTypeID) {
	for _, id := range ids {
		w.removed[id] = append(w.removed[id], e)
	}
}

func (w *World) sparseFor(meta *ComponentMeta) sparseSet {
	for int(meta.ID) >= len(w.sparse) {
		w.sparse = append(w.sparse, nil)
	}
	if w.sparse[meta.ID] == nil {
		w.sparse[meta.ID] = meta.newSparse()
	}
	return w.sparse[meta.ID]
}

// sparseLookup returns the set for id without creating it.
func (w *World) sparseLookup(id ComponentTypeID) sparseSet {
	if int(id) >= len(w.sparse) {
		return nil
	}
	return w.sparse[id]
}

// knownMetas resolves components without registering them; unknown types
// cannot be on any entity.
func (w *World) knownMetas(components []Component) []*ComponentMeta {
	metas := make([]*ComponentMeta, 0, len(components))
	for _, c := range components {
		if meta, ok := w.registry.lookup(c.componentSpec().typ); ok {
			metas = append(metas, meta)
		}
	}
	return metas
}
