package stockroom

import (
	"github.com/TheBitDrifter/mask"
)

// bundle is a resolved set of component values. Each type appears once;
// for duplicates the value given last wins.
type bundle struct {
	values []ComponentValue
	metas  []*ComponentMeta
	mask   mask.Mask
}

func (w *World) resolveBundle(values []ComponentValue) (bundle, error) {
	b := bundle{
		values: make([]ComponentValue, 0, len(values)),
		metas:  make([]*ComponentMeta, 0, len(values)),
	}
	for _, v := range values {
		meta, err := w.registry.register(v)
		if err != nil {
			return bundle{}, err
		}
		if hasBit(b.mask, meta.ID) {
			for i, m := range b.metas {
				if m.ID == meta.ID {
					b.values[i] = v
				}
			}
			continue
		}
		b.mask.Mark(uint32(meta.ID))
		b.values = append(b.values, v)
		b.metas = append(b.metas, meta)
	}
	return b, nil
}

func hasBit(m mask.Mask, id ComponentTypeID) bool {
	var bit mask.Mask
	bit.Mark(uint32(id))
	return m.ContainsAll(bit)
}

// transitionTarget resolves the archetype reached from src by adding or
// removing delta, through src's edge cache when the edge is known. metas
// describes the added components and is ignored for removals.
func (w *World) transitionTarget(src *Archetype, op EdgeOp, delta mask.Mask, metas []*ComponentMeta) *Archetype {
	if delta == (mask.Mask{}) {
		return src
	}
	if id, ok := src.edge(op, delta); ok {
		return w.archetypes[id]
	}
	var desc archetypeDescription
	switch op {
	case EdgeAdd:
		desc = src.describeWith(metas)
	case EdgeRemove:
		desc = src.describeWithout(delta)
	}
	id := w.findOrCreateArchetype(desc)
	src.setEdge(op, delta, id)
	return w.archetypes[id]
}

func (w *World) findOrCreateArchetype(desc archetypeDescription) ArchetypeID {
	m := desc.mask()
	if id, ok := w.archetypeIndex[m]; ok {
		if debugAssertions {
			debugAssert(w.archetypes[id].matchesDescription(desc), "archetype %d indexed under a foreign component set", id)
		}
		return id
	}
	tableID := w.findOrCreateTable(desc.tableTypes)
	id := ArchetypeID(len(w.archetypes))
	arch := newArchetype(id, tableID, desc)
	w.archetypes = append(w.archetypes, arch)
	w.archetypeIndex[m] = id
	w.archetypeGeneration++

	w.log.Debug().
		Uint32("archetype", uint32(id)).
		Uint32("table", uint32(tableID)).
		Int("table_components", len(desc.tableTypes)).
		Int("sparse_components", len(desc.sparseTypes)).
		Msg("archetype created")
	if w.events.OnArchetypeCreated != nil {
		w.events.OnArchetypeCreated(arch)
	}
	return id
}

func (w *World) findOrCreateTable(ids []ComponentTypeID) TableID {
	var m mask.Mask
	metas := make([]*ComponentMeta, len(ids))
	for i, id := range ids {
		m.Mark(uint32(id))
		metas[i] = w.registry.metas[id]
	}
	if id, ok := w.tableIndex[m]; ok {
		return id
	}
	id := TableID(len(w.tables))
	tbl := newTable(id, metas, w.initialCapacity)
	w.tables = append(w.tables, tbl)
	w.tableIndex[m] = id

	w.log.Debug().
		Uint32("table", uint32(id)).
		Int("columns", len(ids)).
		Msg("table created")
	if w.events.OnTableCreated != nil {
		w.events.OnTableCreated(tbl)
	}
	return id
}

// bundleInserter carries one insert from a source archetype to its target.
// It is built per call and may be reused for every entity of a batch that
// shares the source archetype.
type bundleInserter struct {
	world *World
	src   *Archetype
	dst   *Archetype
	mode  InsertMode
	b     bundle
	// added indexes the bundle entries the source archetype lacks.
	added []int
}

func (w *World) newBundleInserter(src *Archetype, b bundle, mode InsertMode) bundleInserter {
	ins := bundleInserter{world: w, src: src, mode: mode, b: b}
	var delta mask.Mask
	var metas []*ComponentMeta
	for i, meta := range b.metas {
		if src.Contains(meta.ID) {
			continue
		}
		ins.added = append(ins.added, i)
		delta.Mark(uint32(meta.ID))
		metas = append(metas, meta)
	}
	ins.dst = w.transitionTarget(src, EdgeAdd, delta, metas)
	return ins
}

// spawn places a new entity directly in the target archetype.
func (ins bundleInserter) spawn(e Entity) EntityLocation {
	w := ins.world
	tbl := w.tables[ins.dst.tableID]
	row := tbl.allocateRow(e)
	loc := EntityLocation{
		ArchetypeID:  ins.dst.id,
		TableID:      ins.dst.tableID,
		TableRow:     uint32(row),
		ArchetypeRow: ins.dst.allocate(e, uint32(row)),
	}
	w.locations.set(e, loc)
	for i, meta := range ins.b.metas {
		w.writeValue(tbl, row, e, meta, ins.b.values[i])
	}
	return loc
}

// insert applies the bundle to e, which lives in the source archetype.
func (ins bundleInserter) insert(e Entity, loc EntityLocation) EntityLocation {
	w := ins.world
	if len(ins.added) < len(ins.b.metas) {
		tbl := w.tables[loc.TableID]
		for i, meta := range ins.b.metas {
			if !ins.src.Contains(meta.ID) {
				continue
			}
			if ins.mode == Replace {
				w.replaceValue(tbl, int(loc.TableRow), e, meta, ins.b.values[i])
			} else {
				ins.b.values[i].discard()
			}
		}
	}
	if ins.dst == ins.src {
		return loc
	}
	loc = w.moveEntity(e, loc, ins.src, ins.dst)
	tbl := w.tables[loc.TableID]
	for _, i := range ins.added {
		w.writeValue(tbl, int(loc.TableRow), e, ins.b.metas[i], ins.b.values[i])
	}
	return loc
}

func (w *World) writeValue(tbl *Table, row int, e Entity, meta *ComponentMeta, v ComponentValue) {
	switch meta.Storage {
	case StorageTable:
		tbl.writeComponent(row, meta.ID, v)
	case StorageSparseSet:
		v.writeSparse(w.sparseFor(meta), e)
	}
}

func (w *World) replaceValue(tbl *Table, row int, e Entity, meta *ComponentMeta, v ComponentValue) {
	switch meta.Storage {
	case StorageTable:
		tbl.dropComponent(row, meta.ID)
		tbl.writeComponent(row, meta.ID, v)
	case StorageSparseSet:
		set := w.sparseFor(meta)
		set.drop(e)
		v.writeSparse(set, e)
	}
}

// bundleRemover carries one removal from a source archetype to its target.
type bundleRemover struct {
	world   *World
	src     *Archetype
	dst     *Archetype
	present []*ComponentMeta
	// untracked skips the Removed trackers, for values that come back.
	untracked bool
}

// newBundleRemover keeps only the components src actually has; the rest
// are no-ops.
func (w *World) newBundleRemover(src *Archetype, metas []*ComponentMeta) bundleRemover {
	rem := bundleRemover{world: w, src: src}
	var delta mask.Mask
	for _, meta := range metas {
		if !src.Contains(meta.ID) || hasBit(delta, meta.ID) {
			continue
		}
		delta.Mark(uint32(meta.ID))
		rem.present = append(rem.present, meta)
	}
	rem.dst = w.transitionTarget(src, EdgeRemove, delta, nil)
	return rem
}

// remove strips the components from e. With drop unset the caller has
// already taken the values.
func (rem bundleRemover) remove(e Entity, loc EntityLocation, drop bool) EntityLocation {
	if rem.dst == rem.src {
		return loc
	}
	w := rem.world
	tbl := w.tables[loc.TableID]
	for _, meta := range rem.present {
		switch meta.Storage {
		case StorageTable:
			if drop {
				tbl.dropComponent(int(loc.TableRow), meta.ID)
			}
		case StorageSparseSet:
			w.sparse[meta.ID].remove(e, drop)
		}
		if !rem.untracked {
			w.removed[meta.ID] = append(w.removed[meta.ID], e)
		}
	}
	return w.moveEntity(e, loc, rem.src, rem.dst)
}

func (w *World) insertBundle(e Entity, loc EntityLocation, b bundle, mode InsertMode) EntityLocation {
	return w.newBundleInserter(w.archetypes[loc.ArchetypeID], b, mode).insert(e, loc)
}

func (w *World) removeBundle(e Entity, loc EntityLocation, metas []*ComponentMeta, drop bool) EntityLocation {
	return w.newBundleRemover(w.archetypes[loc.ArchetypeID], metas).remove(e, loc, drop)
}

// moveEntity relocates e from src to dst. Table components both tables
// share are moved; the caller has already dropped or taken the others.
// Every entity displaced by the swap-removes gets its location patched
// before e's new location is committed.
func (w *World) moveEntity(e Entity, loc EntityLocation, src, dst *Archetype) EntityLocation {
	next := EntityLocation{ArchetypeID: dst.id, TableID: dst.tableID, TableRow: loc.TableRow}
	if src.tableID != dst.tableID {
		srcTbl, dstTbl := w.tables[src.tableID], w.tables[dst.tableID]
		row := int(loc.TableRow)
		dstRow := dstTbl.allocateRow(e)
		for _, id := range srcTbl.ids {
			if dstTbl.HasColumn(id) {
				srcTbl.moveComponentTo(row, dstTbl, dstRow, id)
			}
		}
		if res := srcTbl.swapRemove(row, false); res.HasSwapped {
			w.relocateTableRow(res.Swapped, loc.TableRow)
		}
		next.TableRow = uint32(dstRow)
	}
	w.removeArchetypeRow(src, loc.ArchetypeRow)
	next.ArchetypeRow = dst.allocate(e, next.TableRow)
	w.locations.set(e, next)
	return next
}

// despawnAt drops everything e holds and frees its id.
func (w *World) despawnAt(e Entity, loc EntityLocation) {
	arch := w.archetypes[loc.ArchetypeID]
	for _, id := range arch.sparseTypes {
		w.sparse[id].remove(e, true)
	}
	if res := w.tables[loc.TableID].swapRemove(int(loc.TableRow), true); res.HasSwapped {
		w.relocateTableRow(res.Swapped, loc.TableRow)
	}
	w.removeArchetypeRow(arch, loc.ArchetypeRow)
	w.trackRemoved(e, arch.tableTypes)
	w.trackRemoved(e, arch.sparseTypes)
	w.locations.remove(e)
	w.entities.free(e)
}

// relocateTableRow records that e now sits at table row.
func (w *World) relocateTableRow(e Entity, row uint32) {
	loc := w.locations.ref(e)
	if debugAssertions {
		debugAssert(loc != nil, "swapped entity %v has no location", e)
	}
	loc.TableRow = row
	w.archetypes[loc.ArchetypeID].entities[loc.ArchetypeRow].tableRow = row
}

func (w *World) removeArchetypeRow(arch *Archetype, row uint32) {
	if swapped, ok := arch.swapRemove(int(row)); ok {
		w.locations.ref(swapped).ArchetypeRow = row
	}
}
