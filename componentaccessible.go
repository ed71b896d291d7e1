package stockroom

import (
	"github.com/rotisserie/eris"
)

// AccessibleComponent is the typed handle for component type T. It names the
// type in queries and removals, and as a ComponentValue it inserts T's zero
// value. Use With to insert a specific value.
type AccessibleComponent[T any] struct {
	spec *componentSpec
}

type componentValue[T any] struct {
	spec  *componentSpec
	value T
}

var (
	_ ComponentValue = AccessibleComponent[struct{}]{}
	_ ComponentValue = componentValue[struct{}]{}
)

func (c AccessibleComponent[T]) componentSpec() *componentSpec {
	return c.spec
}

func (c AccessibleComponent[T]) writeColumn(col column, row int) {
	var zero T
	col.(*typedColumn[T]).data[row] = zero
}

func (c AccessibleComponent[T]) writeSparse(s sparseSet, e Entity) {
	var zero T
	s.(*typedSparseSet[T]).insert(e, zero)
}

func (c AccessibleComponent[T]) discard() {
	var zero T
	dropValue(&zero)
}

// With pairs the component type with a value for Spawn and Insert.
func (c AccessibleComponent[T]) With(v T) ComponentValue {
	return componentValue[T]{spec: c.spec, value: v}
}

func (v componentValue[T]) componentSpec() *componentSpec {
	return v.spec
}

func (v componentValue[T]) writeColumn(col column, row int) {
	col.(*typedColumn[T]).data[row] = v.value
}

func (v componentValue[T]) writeSparse(s sparseSet, e Entity) {
	s.(*typedSparseSet[T]).insert(e, v.value)
}

func (v componentValue[T]) discard() {
	dropValue(&v.value)
}

func dropValue[T any](v *T) {
	if d, ok := any(v).(Dropper); ok {
		d.Drop()
	}
}

// Meta returns the registered metadata of T in w.
func (c AccessibleComponent[T]) Meta(w *World) (ComponentMeta, bool) {
	return w.registry.Lookup(c.spec.typ)
}

// Get returns e's T. The pointer is valid until the next structural change
// in w. Dead entities, missing components and unregistered types all report
// false.
func (c AccessibleComponent[T]) Get(w *World, e Entity) (*T, bool) {
	loc, ok := w.locations.get(e)
	if !ok {
		return nil, false
	}
	meta, ok := w.registry.lookup(c.spec.typ)
	if !ok {
		return nil, false
	}
	p := c.pointer(w, loc, e, meta)
	return p, p != nil
}

func (c AccessibleComponent[T]) pointer(w *World, loc EntityLocation, e Entity, meta *ComponentMeta) *T {
	switch meta.Storage {
	case StorageTable:
		col := w.tables[loc.TableID].column(meta.ID)
		if col == nil {
			return nil
		}
		if debugAssertions {
			_, ok := col.(*typedColumn[T])
			debugAssert(ok, "column %d of table %d does not hold %v", meta.ID, loc.TableID, meta.Type)
		}
		return &col.(*typedColumn[T]).data[loc.TableRow]
	case StorageSparseSet:
		set := w.sparseLookup(meta.ID)
		if set == nil {
			return nil
		}
		return set.(*typedSparseSet[T]).get(e)
	}
	return nil
}

// Has reports whether e is alive and has T.
func (c AccessibleComponent[T]) Has(w *World, e Entity) bool {
	return w.HasComponent(e, c)
}

// GetFromEntity returns the T of the entity behind m. It panics if the
// entity has been despawned, and returns nil if it lacks T.
func (c AccessibleComponent[T]) GetFromEntity(m EntityMut) *T {
	m.check()
	p, _ := c.Get(m.world, m.entity)
	return p
}

// GetFromCursor returns the T of the cursor's current entity. The current
// archetype must have T.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	p, _ := c.Get(cursor.world, cursor.Entity())
	return p
}

// GetFromCursorSafe is GetFromCursor for archetypes that may lack T.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.CheckCursor(cursor) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor reports whether the cursor's current archetype has T.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	meta, ok := cursor.world.registry.lookup(c.spec.typ)
	if !ok || cursor.current == nil {
		return false
	}
	return cursor.current.Contains(meta.ID)
}

// Take removes T from e and returns the value. The value is handed over,
// not dropped.
func (c AccessibleComponent[T]) Take(w *World, e Entity) (T, error) {
	return c.take(w, e, true)
}

func (c AccessibleComponent[T]) take(w *World, e Entity, track bool) (T, error) {
	var zero T
	if w.Locked() {
		return zero, LockedWorldError{}
	}
	w.Flush()
	loc, ok := w.locations.get(e)
	if !ok {
		return zero, eris.Wrapf(ErrEntityDoesNotExist, "take from %v", e)
	}
	meta, ok := w.registry.lookup(c.spec.typ)
	if !ok || !w.archetypes[loc.ArchetypeID].Contains(meta.ID) {
		return zero, eris.Wrapf(ErrComponentNotFound, "take %v from %v", c.spec.typ, e)
	}
	v := *c.pointer(w, loc, e, meta)
	rem := w.newBundleRemover(w.archetypes[loc.ArchetypeID], []*ComponentMeta{meta})
	rem.untracked = !track
	rem.remove(e, loc, false)
	return v, nil
}

// Modify takes e's T out, lets fn change it with full access to w, and puts
// it back. If fn despawns e the value is dropped instead. fn runs with the
// world unlocked, so it may make structural changes.
func (c AccessibleComponent[T]) Modify(w *World, e Entity, fn func(*World, *T)) error {
	v, err := c.take(w, e, false)
	if err != nil {
		return err
	}
	fn(w, &v)
	if !w.Contains(e) {
		if d, ok := any(&v).(Dropper); ok {
			d.Drop()
		}
		return nil
	}
	return w.Insert(e, Replace, c.With(v))
}
