package stockroom

import (
	"fmt"
	"reflect"

	"github.com/rotisserie/eris"
)

var (
	// ErrEntityDoesNotExist is matched by every write against a dead or
	// never-issued entity handle.
	ErrEntityDoesNotExist = eris.New("entity does not exist")
	// ErrComponentNotFound is returned when a value must be produced from a
	// component the entity does not have.
	ErrComponentNotFound = eris.New("component does not exist on entity")
	// ErrEmptyBundle is returned by Insert when given no values.
	ErrEmptyBundle = eris.New("no components to insert")
)

type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "world is currently locked"
}

type ComponentConflictError struct {
	Type       reflect.Type
	Registered StorageKind
	Requested  StorageKind
}

func (e ComponentConflictError) Error() string {
	return fmt.Sprintf("component %v already registered with %v storage, requested %v", e.Type, e.Registered, e.Requested)
}

type ComponentNameError struct {
	Name       string
	Type       reflect.Type
	Registered reflect.Type
}

func (e ComponentNameError) Error() string {
	return fmt.Sprintf("component name %q for %v already taken by %v", e.Name, e.Type, e.Registered)
}

type TooManyComponentTypesError struct {
	Limit int
}

func (e TooManyComponentTypesError) Error() string {
	return fmt.Sprintf("component type limit reached (%d)", e.Limit)
}
