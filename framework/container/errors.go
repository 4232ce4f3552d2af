package container

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyBuilt is returned when a Builder is used after Build.
	ErrAlreadyBuilt = errors.New("container: builder already built")

	// ErrNilInstance is returned when a nil value is staged or injected.
	ErrNilInstance = errors.New("container: nil instance")

	// ErrNotInjectable is returned when injection targets something other
	// than a non-nil pointer to a struct.
	ErrNotInjectable = errors.New("container: target is not a pointer to a struct")

	// errContended unwinds a resolution that must give back its claims
	// before it can continue.
	errContended = errors.New("container: singleton claimed by a waiting resolution")
)

// ServiceNotFoundError is returned when no binding satisfies a lookup.
//
// Name is empty for type lookups; Type is nil for pure name lookups.
type ServiceNotFoundError struct {
	Name string
	Type reflect.Type
}

// Error implements the error interface.
func (e *ServiceNotFoundError) Error() string {
	switch {
	case e.Name != "" && e.Type != nil:
		return "container: no service named " + strconv.Quote(e.Name) + " assignable to " + e.Type.String()
	case e.Name != "":
		return "container: no service named " + strconv.Quote(e.Name)
	default:
		return "container: no service bound for type " + typeName(e.Type)
	}
}

// DuplicateServiceError is returned when two bindings share a type-key or a
// name-key.
type DuplicateServiceError struct {
	// Key is the colliding name, or the colliding type rendered as a string.
	Key      string
	ByName   bool
	Existing Provider
	Added    Provider
}

// Error implements the error interface.
func (e *DuplicateServiceError) Error() string {
	kind := "type"
	if e.ByName {
		kind = "name"
	}
	return "container: duplicate service " + kind + " key " + strconv.Quote(e.Key) +
		" (" + describe(e.Existing) + " vs " + describe(e.Added) + ")"
}

// InvalidCastError is returned when a provider produces (or would produce)
// a value not assignable to its exposed type.
type InvalidCastError struct {
	Name     string
	Exposed  reflect.Type
	Produced reflect.Type
}

// Error implements the error interface.
func (e *InvalidCastError) Error() string {
	msg := "container: " + typeName(e.Produced) + " is not assignable to " + typeName(e.Exposed)
	if e.Name != "" {
		msg += " (service " + strconv.Quote(e.Name) + ")"
	}
	return msg
}

// CircularDependencyError is returned when a transient provider re-enters
// itself within one resolution, or a singleton factory re-enters itself
// before it produced an instance.
type CircularDependencyError struct {
	// Chain lists the providers on the resolution stack, outermost first,
	// ending with the one that was re-entered.
	Chain []string
}

// Error implements the error interface.
func (e *CircularDependencyError) Error() string {
	return "container: circular dependency: " + strings.Join(e.Chain, " -> ")
}

// InjectMemberError is returned when a required injection point could not
// be satisfied.
type InjectMemberError struct {
	Target reflect.Type
	Member string
	Err    error
}

// Error implements the error interface.
func (e *InjectMemberError) Error() string {
	return "container: inject " + typeName(e.Target) + "." + e.Member + ": " + e.Err.Error()
}

// Unwrap supports errors.Is / errors.As.
func (e *InjectMemberError) Unwrap() error { return e.Err }

// Cause supports github.com/pkg/errors.Cause.
func (e *InjectMemberError) Cause() error { return e.Err }

// UnsupportedConstructionError is returned when the container is asked to
// default-construct a type it cannot allocate.
type UnsupportedConstructionError struct {
	Type   reflect.Type
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedConstructionError) Error() string {
	return "container: cannot construct " + typeName(e.Type) + ": " + e.Reason
}

// LazyOrderError is returned by Build when eager singletons forced the
// construction of lazy singletons.
type LazyOrderError struct {
	Names []string
}

// Error implements the error interface.
func (e *LazyOrderError) Error() string {
	return "container: eager singletons force construction of lazy singletons [" +
		strings.Join(e.Names, ", ") + "]; inject *Lazy[T] instead"
}

// IsNotFound reports whether err (or anything it wraps) is a
// *ServiceNotFoundError.
func IsNotFound(err error) bool {
	var nf *ServiceNotFoundError
	return errors.As(err, &nf)
}
