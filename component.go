package stockroom

import (
	"iter"
	"reflect"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// MaxComponentTypes is the number of distinct component types one World can
// register. Archetype signatures are mask.Mask bitsets, so the limit follows
// the mask build tags (m256, m512, m1024).
var MaxComponentTypes = int(mask.MaxBits)

// ComponentTypeID is the registry-assigned identifier of a component type.
// It doubles as the type's bit in archetype and table masks.
type ComponentTypeID uint32

// StorageKind selects where a component's values live.
type StorageKind uint8

const (
	// StorageTable keeps values in the archetype's dense table. They move
	// whenever the entity changes archetype.
	StorageTable StorageKind = iota
	// StorageSparseSet keeps values in one per-type set keyed by entity.
	// They stay put on archetype transitions.
	StorageSparseSet
)

func (k StorageKind) String() string {
	switch k {
	case StorageTable:
		return "table"
	case StorageSparseSet:
		return "sparse-set"
	}
	return "unknown"
}

// ComponentMeta describes a registered component type. It never changes
// after registration.
type ComponentMeta struct {
	ID      ComponentTypeID
	Name    string
	Type    reflect.Type
	Size    uintptr
	Align   uintptr
	Storage StorageKind
	// Drops reports whether *T implements Dropper.
	Drops bool
	// ElementType is the handle the table package knows T by.
	ElementType table.ElementType

	newColumn func(capacity int) column
	newSparse func() sparseSet
}

type componentSpec struct {
	typ         reflect.Type
	name        string
	storage     StorageKind
	elementType table.ElementType
	newColumn   func(capacity int) column
	newSparse   func() sparseSet
}

// ComponentOption adjusts a component type at FactoryNewComponent time.
type ComponentOption func(*componentSpec)

// WithSparseStorage stores the component in a sparse set instead of the
// archetype table. Good for components that are large, or added and removed
// often, since transitions never copy them.
func WithSparseStorage() ComponentOption {
	return func(s *componentSpec) {
		s.storage = StorageSparseSet
	}
}

// WithName overrides the registry name, which defaults to the import path
// qualified type name.
func WithName(name string) ComponentOption {
	return func(s *componentSpec) {
		s.name = name
	}
}

func defaultComponentName(typ reflect.Type) string {
	if typ.Name() != "" && typ.PkgPath() != "" {
		return typ.PkgPath() + "." + typ.Name()
	}
	return typ.String()
}

// Registry maps component types to their metadata. Registration is
// append-only and idempotent: registering a type again returns the meta it
// was first given.
type Registry struct {
	byType map[reflect.Type]ComponentTypeID
	metas  []*ComponentMeta
	names  Cache[ComponentTypeID]
}

func newRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]ComponentTypeID),
		names:  FactoryNewCache[ComponentTypeID](MaxComponentTypes),
	}
}

// Register records c's type if it is new and returns its meta.
func (r *Registry) Register(c Component) (ComponentMeta, error) {
	meta, err := r.register(c)
	if err != nil {
		return ComponentMeta{}, err
	}
	return *meta, nil
}

func (r *Registry) register(c Component) (*ComponentMeta, error) {
	spec := c.componentSpec()
	if id, ok := r.byType[spec.typ]; ok {
		meta := r.metas[id]
		if meta.Storage != spec.storage {
			return nil, ComponentConflictError{
				Type:       spec.typ,
				Registered: meta.Storage,
				Requested:  spec.storage,
			}
		}
		return meta, nil
	}
	if len(r.byType) >= MaxComponentTypes {
		return nil, TooManyComponentTypesError{Limit: MaxComponentTypes}
	}
	name := spec.name
	if name == "" {
		name = defaultComponentName(spec.typ)
	}
	if idx, taken := r.names.GetIndex(name); taken {
		return nil, ComponentNameError{
			Name:       name,
			Type:       spec.typ,
			Registered: r.metas[*r.names.GetItem(idx)].Type,
		}
	}

	// Ids are dense per registry; they index metas and mask bits.
	id := ComponentTypeID(len(r.metas))
	if _, err := r.names.Register(name, id); err != nil {
		return nil, err
	}

	_, drops := reflect.Zero(reflect.PointerTo(spec.typ)).Interface().(Dropper)
	meta := &ComponentMeta{
		ID:          id,
		Name:        name,
		Type:        spec.typ,
		Size:        spec.typ.Size(),
		Align:       uintptr(spec.typ.Align()),
		Storage:     spec.storage,
		Drops:       drops,
		ElementType: spec.elementType,
		newColumn:   spec.newColumn,
		newSparse:   spec.newSparse,
	}
	r.metas = append(r.metas, meta)
	r.byType[spec.typ] = id
	return meta, nil
}

func (r *Registry) lookup(typ reflect.Type) (*ComponentMeta, bool) {
	id, ok := r.byType[typ]
	if !ok {
		return nil, false
	}
	return r.metas[id], true
}

func (r *Registry) lookupID(id ComponentTypeID) (*ComponentMeta, bool) {
	if int(id) >= len(r.metas) || r.metas[id] == nil {
		return nil, false
	}
	return r.metas[id], true
}

// Lookup returns the meta registered for typ.
func (r *Registry) Lookup(typ reflect.Type) (ComponentMeta, bool) {
	meta, ok := r.lookup(typ)
	if !ok {
		return ComponentMeta{}, false
	}
	return *meta, true
}

// LookupID returns the meta registered under id.
func (r *Registry) LookupID(id ComponentTypeID) (ComponentMeta, bool) {
	meta, ok := r.lookupID(id)
	if !ok {
		return ComponentMeta{}, false
	}
	return *meta, true
}

// LookupName returns the meta registered under name.
func (r *Registry) LookupName(name string) (ComponentMeta, bool) {
	idx, ok := r.names.GetIndex(name)
	if !ok {
		return ComponentMeta{}, false
	}
	return r.LookupID(*r.names.GetItem(idx))
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.byType)
}

// All yields every registered meta in id order.
func (r *Registry) All() iter.Seq[ComponentMeta] {
	return func(yield func(ComponentMeta) bool) {
		for _, meta := range r.metas {
			if meta == nil {
				continue
			}
			if !yield(*meta) {
				return
			}
		}
	}
}

// maskOf builds the signature of the given components. Types that were
// never registered are left out and reported through known.
func (r *Registry) maskOf(components []Component) (m mask.Mask, known bool) {
	known = true
	for _, c := range components {
		meta, ok := r.lookup(c.componentSpec().typ)
		if !ok {
			known = false
			continue
		}
		m.Mark(uint32(meta.ID))
	}
	return m, known
}
