package stockroom

// column is one type-erased, fixed-stride buffer of a table. Every method
// trusts its row arguments; the table keeps them in range.
type column interface {
	len() int
	pushZero()
	reserve(additional int)
	ptr(row int) any
	moveTo(row int, dst column, dstRow int)
	drop(row int)
	swapRemove(row int)
	truncate(drop bool)
}

type typedColumn[T any] struct {
	data  []T
	drops bool
}

func newTypedColumn[T any](capacity int) column {
	_, drops := any((*T)(nil)).(Dropper)
	return &typedColumn[T]{
		data:  make([]T, 0, capacity),
		drops: drops,
	}
}

func (c *typedColumn[T]) len() int {
	return len(c.data)
}

func (c *typedColumn[T]) pushZero() {
	var zero T
	c.data = append(c.data, zero)
}

func (c *typedColumn[T]) reserve(additional int) {
	if need := len(c.data) + additional; need > cap(c.data) {
		grown := make([]T, len(c.data), max(need, 2*cap(c.data)))
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *typedColumn[T]) ptr(row int) any {
	return &c.data[row]
}

// moveTo copies the value to dst and zeroes the source slot, so the moved
// value is never dropped twice and the old slot holds no references.
func (c *typedColumn[T]) moveTo(row int, dst column, dstRow int) {
	d := dst.(*typedColumn[T])
	d.data[dstRow] = c.data[row]
	var zero T
	c.data[row] = zero
}

func (c *typedColumn[T]) drop(row int) {
	if c.drops {
		any(&c.data[row]).(Dropper).Drop()
	}
}

func (c *typedColumn[T]) swapRemove(row int) {
	last := len(c.data) - 1
	if row != last {
		c.data[row] = c.data[last]
	}
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
}

func (c *typedColumn[T]) truncate(drop bool) {
	if drop && c.drops {
		for i := range c.data {
			any(&c.data[i]).(Dropper).Drop()
		}
	}
	clear(c.data)
	c.data = c.data[:0]
}
