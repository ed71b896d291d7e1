package stockroom

import "github.com/TheBitDrifter/bark"

type operation struct {
	typ    operationType
	entity Entity
	mode   InsertMode
	b      bundle
	metas  []*ComponentMeta
}

type operationType int

const (
	opCreate operationType = iota
	opDestroy
	opInsert
	opRemove
)

// opQueue holds structural changes requested while the world was locked.
// Creates apply first, then component changes in request order, then
// destroys.
type opQueue struct {
	createOps      []operation
	componentOps   []operation
	destroyOps     []operation
	pendingDestroy map[Entity]struct{}
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Entity]struct{}),
	}
}

func (q *opQueue) len() int {
	return len(q.createOps) + len(q.componentOps) + len(q.destroyOps)
}

func (q *opQueue) enqueueOp(op operation) {
	switch op.typ {
	case opCreate:
		q.createOps = append(q.createOps, op)
	case opDestroy:
		if _, queued := q.pendingDestroy[op.entity]; queued {
			return
		}
		q.pendingDestroy[op.entity] = struct{}{}
		q.destroyOps = append(q.destroyOps, op)
	case opInsert, opRemove:
		// Changes to an entity that is about to be destroyed are pointless.
		if _, queued := q.pendingDestroy[op.entity]; queued {
			return
		}
		q.componentOps = append(q.componentOps, op)
	}
}

// take empties the queue and returns what it held.
func (q *opQueue) take() (creates, components, destroys []operation) {
	creates, components, destroys = q.createOps, q.componentOps, q.destroyOps
	q.createOps, q.componentOps, q.destroyOps = nil, nil, nil
	clear(q.pendingDestroy)
	return creates, components, destroys
}

// EnqueueSpawn spawns now if the world is unlocked. Otherwise it reserves
// the entity, returns it, and fills in its components when the last lock is
// released.
func (w *World) EnqueueSpawn(values ...ComponentValue) (Entity, error) {
	if !w.Locked() {
		return w.Spawn(values...)
	}
	b, err := w.resolveBundle(values)
	if err != nil {
		return Entity{}, bark.AddTrace(err)
	}
	e := w.ReserveEntity()
	if len(b.metas) > 0 {
		w.opQueue.enqueueOp(operation{typ: opCreate, entity: e, mode: Replace, b: b})
	}
	return e, nil
}

// EnqueueDespawn despawns now if the world is unlocked, otherwise once it
// is unlocked. Entities already dead by then are skipped.
func (w *World) EnqueueDespawn(entities ...Entity) {
	if !w.Locked() {
		for _, e := range entities {
			w.Despawn(e)
		}
		return
	}
	for _, e := range entities {
		w.opQueue.enqueueOp(operation{typ: opDestroy, entity: e})
	}
}

// EnqueueInsert is Insert, deferred while the world is locked. The values
// are registered immediately, so type errors surface here.
func (w *World) EnqueueInsert(e Entity, mode InsertMode, values ...ComponentValue) error {
	if !w.Locked() {
		return w.Insert(e, mode, values...)
	}
	b, err := w.resolveBundle(values)
	if err != nil {
		return bark.AddTrace(err)
	}
	w.opQueue.enqueueOp(operation{typ: opInsert, entity: e, mode: mode, b: b})
	return nil
}

// EnqueueRemove is Remove, deferred while the world is locked.
func (w *World) EnqueueRemove(e Entity, components ...Component) error {
	if !w.Locked() {
		return w.Remove(e, components...)
	}
	w.opQueue.enqueueOp(operation{typ: opRemove, entity: e, metas: w.knownMetas(components)})
	return nil
}

// processOperationQueue applies queued changes. Operations whose entity
// died in the meantime are skipped and logged.
func (w *World) processOperationQueue() {
	if w.opQueue.len() == 0 && !w.entities.pending() {
		return
	}
	w.Flush()
	creates, components, destroys := w.opQueue.take()
	applied := 0

	for _, op := range creates {
		if w.applyQueued(op) {
			applied++
		}
	}
	for _, op := range components {
		if w.applyQueued(op) {
			applied++
		}
	}
	for _, op := range destroys {
		if w.Despawn(op.entity) {
			applied++
		}
	}

	w.log.Debug().
		Int("queued", len(creates)+len(components)+len(destroys)).
		Int("applied", applied).
		Msg("operation queue flushed")
}

func (w *World) applyQueued(op operation) bool {
	loc, ok := w.locations.get(op.entity)
	if !ok {
		w.log.Warn().
			Stringer("entity", op.entity).
			Int("op", int(op.typ)).
			Msg("skipping queued operation for dead entity")
		return false
	}
	switch op.typ {
	case opCreate, opInsert:
		w.insertBundle(op.entity, loc, op.b, op.mode)
	case opRemove:
		w.removeBundle(op.entity, loc, op.metas, true)
	}
	return true
}
