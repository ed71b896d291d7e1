package stockroom

import "github.com/rotisserie/eris"

// EntityMut is an entity-scoped handle for a run of changes to one entity.
// Every method panics if the entity has been despawned since the handle was
// made, whoever despawned it.
type EntityMut struct {
	world  *World
	entity Entity
}

// Entity returns a handle for a live e.
func (w *World) Entity(e Entity) (EntityMut, error) {
	w.Flush()
	if !w.Contains(e) {
		return EntityMut{}, eris.Wrapf(ErrEntityDoesNotExist, "entity handle for %v", e)
	}
	return EntityMut{world: w, entity: e}, nil
}

func (m EntityMut) check() {
	if !m.world.Contains(m.entity) {
		panic("attempted to use a despawned entity handle")
	}
}

func (m EntityMut) ID() Entity {
	return m.entity
}

func (m EntityMut) World() *World {
	return m.world
}

func (m EntityMut) Location() EntityLocation {
	m.check()
	loc, _ := m.world.locations.get(m.entity)
	return loc
}

func (m EntityMut) Has(c Component) bool {
	m.check()
	return m.world.HasComponent(m.entity, c)
}

func (m EntityMut) Insert(mode InsertMode, values ...ComponentValue) error {
	m.check()
	return m.world.Insert(m.entity, mode, values...)
}

func (m EntityMut) Remove(components ...Component) error {
	m.check()
	return m.world.Remove(m.entity, components...)
}

// Despawn ends the entity; the handle is unusable afterwards.
func (m EntityMut) Despawn() {
	m.check()
	m.world.Despawn(m.entity)
}
