package stockroom

import (
	"reflect"

	"github.com/TheBitDrifter/table"
)

type factory struct{}

var Factory factory

func (f factory) NewWorld(opts ...WorldOption) *World {
	cfg := Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return newWorld(cfg)
}

func (f factory) NewQuery() Query {
	return newQuery()
}

func (f factory) NewCursor(query QueryNode, world *World) *Cursor {
	return newCursor(query, world)
}

func FactoryNewComponent[T any](opts ...ComponentOption) AccessibleComponent[T] {
	spec := &componentSpec{
		typ:         reflect.TypeFor[T](),
		elementType: table.FactoryNewElementType[T](),
		newColumn:   newTypedColumn[T],
		newSparse:   newTypedSparseSet[T],
	}
	for _, opt := range opts {
		opt(spec)
	}
	return AccessibleComponent[T]{spec: spec}
}

func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
