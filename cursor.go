package stockroom

import (
	"iter"
)

var _ iCursor = &Cursor{}

// Cursor walks the entities of every archetype a query matches. From the
// first Next until iteration ends or Reset is called the world is locked:
// structural changes fail or must be enqueued.
type Cursor struct {
	// The query to filter archetypes
	query QueryNode

	// The world to iterate over
	world *World

	// Current iteration state
	current        *Archetype
	archetypeIndex int
	entityIndex    int
	remaining      int

	matched     []*Archetype
	initialized bool
}

func newCursor(query QueryNode, world *World) *Cursor {
	return &Cursor{
		query: query,
		world: world,
	}
}

// Next moves to the next matching entity. It returns false, and unlocks
// the world, once every match has been visited.
func (c *Cursor) Next() bool {
	if c.initialized && c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.initialize()
	} else {
		c.archetypeIndex++
		c.entityIndex = 0
	}
	for c.archetypeIndex < len(c.matched) {
		c.current = c.matched[c.archetypeIndex]
		c.remaining = c.current.Len()

		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.archetypeIndex++
		c.entityIndex = 0
	}
	c.Reset()
	return false
}

// Entities yields every matching entity. Breaking out early resets the
// cursor.
func (c *Cursor) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		c.initialize()

		for c.archetypeIndex < len(c.matched) {
			c.current = c.matched[c.archetypeIndex]
			c.remaining = c.current.Len()

			for c.entityIndex < c.remaining {
				c.entityIndex++
				if !yield(c.current.Entity(c.entityIndex - 1)) {
					c.Reset()
					return
				}
			}
			c.entityIndex = 0
			c.archetypeIndex++
		}
		c.Reset()
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.world.Flush()
	c.matched = c.matched[:0]
	for _, arch := range c.world.archetypes {
		if arch.Len() > 0 && c.query.Evaluate(arch, c.world) {
			c.matched = append(c.matched, arch)
		}
	}
	c.archetypeIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.current = nil
	c.initialized = true
	c.world.cursors++
}

// Reset ends iteration early and releases the cursor's lock.
func (c *Cursor) Reset() {
	if !c.initialized {
		return
	}
	c.archetypeIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.current = nil
	c.matched = c.matched[:0]
	c.initialized = false
	c.world.cursors--
	c.world.releaseLock()
}

// Entity returns the entity the cursor is on.
func (c *Cursor) Entity() Entity {
	return c.current.Entity(c.entityIndex - 1)
}

// Archetype returns the archetype the cursor is in.
func (c *Cursor) Archetype() *Archetype {
	return c.current
}

func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.entityIndex
}

// TotalMatched counts the entities the query matches right now. It does
// not lock the world.
func (c *Cursor) TotalMatched() int {
	total := 0
	if c.initialized {
		for _, arch := range c.matched {
			total += arch.Len()
		}
		return total
	}
	for _, arch := range c.world.archetypes {
		if c.query.Evaluate(arch, c.world) {
			total += arch.Len()
		}
	}
	return total
}
