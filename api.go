package stockroom

import "iter"

// Component identifies a component type. Values are created with
// FactoryNewComponent; the unexported method keeps the set of
// implementations inside this package.
type Component interface {
	componentSpec() *componentSpec
}

// ComponentValue pairs a component type with a value to store for it.
// AccessibleComponent[T] is itself a ComponentValue carrying T's zero value.
type ComponentValue interface {
	Component
	writeColumn(c column, row int)
	writeSparse(s sparseSet, e Entity)
	// discard drops the carried value when it is not stored.
	discard()
}

// Dropper is implemented (on the pointer) by component types that hold
// something which must be released when a stored value is discarded:
// on despawn, on remove, and when Replace overwrites it. An incoming value
// that Keep leaves unused is dropped as well.
// Values moved between tables, or handed back by Take, are not dropped.
type Dropper interface {
	Drop()
}

type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

type QueryNode interface {
	Evaluate(archetype *Archetype, world *World) bool
}

type iCursor interface {
	Entities() iter.Seq[Entity]
	Next() bool
}

type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
	Len() int
}
