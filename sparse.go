package stockroom

import "github.com/kamstrup/intmap"

// sparseSet stores one component type for every entity that has it, keyed
// by entity index. Values never move on archetype transitions.
type sparseSet interface {
	len() int
	has(e Entity) bool
	ptr(e Entity) any
	drop(e Entity)
	remove(e Entity, drop bool) bool
	clear(drop bool)
}

type typedSparseSet[T any] struct {
	dense    []T
	entities []Entity
	index    *intmap.Map[uint32, int]
	drops    bool
}

func newTypedSparseSet[T any]() sparseSet {
	_, drops := any((*T)(nil)).(Dropper)
	return &typedSparseSet[T]{
		index: intmap.New[uint32, int](64),
		drops: drops,
	}
}

func (s *typedSparseSet[T]) len() int {
	return len(s.dense)
}

func (s *typedSparseSet[T]) slot(e Entity) (int, bool) {
	slot, ok := s.index.Get(e.index)
	if !ok || s.entities[slot] != e {
		return 0, false
	}
	return slot, true
}

func (s *typedSparseSet[T]) has(e Entity) bool {
	_, ok := s.slot(e)
	return ok
}

func (s *typedSparseSet[T]) get(e Entity) *T {
	slot, ok := s.slot(e)
	if !ok {
		return nil
	}
	return &s.dense[slot]
}

func (s *typedSparseSet[T]) ptr(e Entity) any {
	return s.get(e)
}

// insert stores v for e, overwriting any existing value without dropping it.
func (s *typedSparseSet[T]) insert(e Entity, v T) {
	if slot, ok := s.slot(e); ok {
		s.dense[slot] = v
		return
	}
	s.index.Put(e.index, len(s.dense))
	s.dense = append(s.dense, v)
	s.entities = append(s.entities, e)
}

func (s *typedSparseSet[T]) drop(e Entity) {
	if !s.drops {
		return
	}
	if slot, ok := s.slot(e); ok {
		any(&s.dense[slot]).(Dropper).Drop()
	}
}

func (s *typedSparseSet[T]) remove(e Entity, drop bool) bool {
	slot, ok := s.slot(e)
	if !ok {
		return false
	}
	if drop && s.drops {
		any(&s.dense[slot]).(Dropper).Drop()
	}
	last := len(s.dense) - 1
	if slot != last {
		moved := s.entities[last]
		s.dense[slot] = s.dense[last]
		s.entities[slot] = moved
		s.index.Put(moved.index, slot)
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.entities = s.entities[:last]
	s.index.Del(e.index)
	return true
}

func (s *typedSparseSet[T]) clear(drop bool) {
	if drop && s.drops {
		for i := range s.dense {
			any(&s.dense[i]).(Dropper).Drop()
		}
	}
	clear(s.dense)
	s.dense = s.dense[:0]
	s.entities = s.entities[:0]
	s.index.Clear()
}
