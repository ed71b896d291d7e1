/*
Package stockroom is the archetype storage engine of an Entity-Component-System.

Every entity lives in exactly one archetype: the unique grouping of all
entities with the same component set. Table-stored components sit in
column-oriented tables, one contiguous column per type, so a system that
touches a few components walks dense memory. Components registered with
WithSparseStorage live in per-type sparse sets instead and never move when
the entity changes archetype.

Core Concepts:

  - Entity: an index plus a generation. Despawning bumps the generation, so
    stale handles never resolve to a recycled index.
  - Component: a plain Go type, made usable with FactoryNewComponent.
  - Archetype: the canonical home of one component set, with cached edges to
    the archetypes one insert or removal away.
  - Table: the dense columns shared by archetypes with the same table
    components.
  - Query and Cursor: archetype filtering and entity iteration.

Basic Usage:

	world := stockroom.Factory.NewWorld()

	position := stockroom.FactoryNewComponent[Position]()
	velocity := stockroom.FactoryNewComponent[Velocity]()

	e, _ := world.Spawn(position.With(Position{X: 1}), velocity.With(Velocity{X: 2}))

	query := stockroom.Factory.NewQuery()
	cursor := stockroom.Factory.NewCursor(query.And(position, velocity), world)
	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
	}

	world.Despawn(e)

A World has a single writer. While a Cursor iterates the world is locked;
use the Enqueue methods to request structural changes from inside a loop.
*/
package stockroom
