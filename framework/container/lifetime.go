package container

import "reflect"

// Lifetime says how long a resolved instance lives.
type Lifetime int

const (
	// LifetimeStatic wraps an instance built outside the container.
	LifetimeStatic Lifetime = iota
	// LifetimeSingleton is built once (eagerly at Build, or on first use when lazy).
	LifetimeSingleton
	// LifetimeTransient is built again on every resolve.
	LifetimeTransient
)

func (l Lifetime) String() string {
	switch l {
	case LifetimeStatic:
		return "static"
	case LifetimeSingleton:
		return "singleton"
	case LifetimeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// TypeOf returns the reflect.Type of T, including interface types.
//
//	c.Resolve(container.TypeOf[io.Writer]())
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeName renders a type for error messages, tolerating nil.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
