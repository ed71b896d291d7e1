package stockroom

import (
	"slices"

	"github.com/TheBitDrifter/mask"
)

// TableID indexes World's table list. Table 0 has no columns and stores
// entities without table components.
type TableID uint32

const emptyTableID TableID = 0

// Table is column-oriented dense storage for one set of table components.
// Several archetypes share a table when they differ only in sparse
// components. Rows are only meaningful until the next removal: swap-remove
// reorders them.
type Table struct {
	id       TableID
	mask     mask.Mask
	ids      []ComponentTypeID
	columns  []column
	colIndex []int16
	entities []Entity
}

// SwapRemoveResult reports which entity, if any, was moved into the vacated
// row by Table.swapRemove.
type SwapRemoveResult struct {
	TableRow   int
	Swapped    Entity
	HasSwapped bool
}

func newTable(id TableID, metas []*ComponentMeta, capacity int) *Table {
	t := &Table{
		id:       id,
		ids:      make([]ComponentTypeID, len(metas)),
		columns:  make([]column, len(metas)),
		entities: make([]Entity, 0, capacity),
	}
	var highest ComponentTypeID
	for i, meta := range metas {
		t.ids[i] = meta.ID
		t.columns[i] = meta.newColumn(capacity)
		t.mask.Mark(uint32(meta.ID))
		highest = max(highest, meta.ID)
	}
	if len(metas) > 0 {
		t.colIndex = make([]int16, highest+1)
		for i := range t.colIndex {
			t.colIndex[i] = -1
		}
		for i, id := range t.ids {
			t.colIndex[id] = int16(i)
		}
	}
	return t
}

func (t *Table) ID() TableID {
	return t.id
}

// RowCount is the shared length of every column.
func (t *Table) RowCount() int {
	return len(t.entities)
}

// Entities returns the row to entity mapping. The slice is owned by the
// table and must not be modified or kept across structural changes.
func (t *Table) Entities() []Entity {
	return t.entities
}

// ComponentIDs lists the table's columns in ascending id order.
func (t *Table) ComponentIDs() []ComponentTypeID {
	return slices.Clone(t.ids)
}

func (t *Table) HasColumn(id ComponentTypeID) bool {
	return t.column(id) != nil
}

func (t *Table) column(id ComponentTypeID) column {
	if int(id) >= len(t.colIndex) {
		return nil
	}
	idx := t.colIndex[id]
	if idx < 0 {
		return nil
	}
	return t.columns[idx]
}

func (t *Table) reserve(additional int) {
	if need := len(t.entities) + additional; need > cap(t.entities) {
		t.entities = slices.Grow(t.entities, additional)
	}
	for _, col := range t.columns {
		col.reserve(additional)
	}
}

// allocateRow appends a zeroed row for e and returns its index.
func (t *Table) allocateRow(e Entity) int {
	row := len(t.entities)
	t.entities = append(t.entities, e)
	for _, col := range t.columns {
		col.pushZero()
	}
	t.assertDense()
	return row
}

// writeComponent stores v at row. The caller guarantees v's type owns the
// column under id; only debug builds check it.
func (t *Table) writeComponent(row int, id ComponentTypeID, v ComponentValue) {
	col := t.column(id)
	if debugAssertions {
		debugAssert(col != nil, "table %d has no column for component %d", t.id, id)
	}
	v.writeColumn(col, row)
}

// moveComponentTo hands the value at row over to dst's column for the same
// type. The source slot is left zeroed and must not be dropped.
func (t *Table) moveComponentTo(row int, dst *Table, dstRow int, id ComponentTypeID) {
	src, target := t.column(id), dst.column(id)
	if debugAssertions {
		debugAssert(src != nil && target != nil, "component %d missing from table %d or %d", id, t.id, dst.id)
	}
	src.moveTo(row, target, dstRow)
}

func (t *Table) dropComponent(row int, id ComponentTypeID) {
	if col := t.column(id); col != nil {
		col.drop(row)
	}
}

// swapRemove deletes row by moving the last row into it. With drop set,
// every column's value at row is dropped first; without it the caller has
// already moved or taken them.
func (t *Table) swapRemove(row int, drop bool) SwapRemoveResult {
	if debugAssertions {
		debugAssert(row < len(t.entities), "row %d out of range for table %d (%d rows)", row, t.id, len(t.entities))
	}
	last := len(t.entities) - 1
	for _, col := range t.columns {
		if drop {
			col.drop(row)
		}
		col.swapRemove(row)
	}
	result := SwapRemoveResult{TableRow: row}
	if row != last {
		result.Swapped = t.entities[last]
		result.HasSwapped = true
		t.entities[row] = t.entities[last]
	}
	t.entities = t.entities[:last]
	t.assertDense()
	return result
}

func (t *Table) clear(drop bool) {
	for _, col := range t.columns {
		col.truncate(drop)
	}
	clear(t.entities)
	t.entities = t.entities[:0]
}

func (t *Table) assertDense() {
	if !debugAssertions {
		return
	}
	for i, col := range t.columns {
		debugAssert(col.len() == len(t.entities),
			"table %d column %d has %d rows, entity column has %d", t.id, t.ids[i], col.len(), len(t.entities))
	}
}
