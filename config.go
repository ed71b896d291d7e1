package stockroom

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the process-wide defaults new worlds start from.
var Config config = config{
	logger:   zerolog.Nop(),
	idSource: uuid.New,
}

type config struct {
	logger          zerolog.Logger
	initialCapacity int
	events          WorldEvents
	idSource        func() uuid.UUID
}

// WorldEvents are optional callbacks fired on structural growth.
type WorldEvents struct {
	OnArchetypeCreated func(*Archetype)
	OnTableCreated     func(*Table)
}

// SetLogger sets the logger new worlds write to.
func (c *config) SetLogger(l zerolog.Logger) {
	c.logger = l
}

// SetInitialCapacity sets how many rows new tables preallocate.
func (c *config) SetInitialCapacity(n int) {
	c.initialCapacity = n
}

// SetEvents configures the structural event callbacks.
func (c *config) SetEvents(ev WorldEvents) {
	c.events = ev
}

type WorldOption func(*config)

func WithLogger(l zerolog.Logger) WorldOption {
	return func(c *config) {
		c.logger = l
	}
}

func WithInitialCapacity(n int) WorldOption {
	return func(c *config) {
		c.initialCapacity = n
	}
}

func WithEvents(ev WorldEvents) WorldOption {
	return func(c *config) {
		c.events = ev
	}
}

// WithIDSource replaces the generator of WorldIDs, e.g. with a
// deterministic sequence in tests.
func WithIDSource(next func() uuid.UUID) WorldOption {
	return func(c *config) {
		c.idSource = next
	}
}
