package container

import "reflect"

// Derived-name markers for factory wrappers of named bindings. A lazy
// singleton named "level" is also reachable as "lazy:level" with type
// *Lazy[T], and a transient named "bullet" as "new:bullet" with type
// *TransientFactory[T].
const (
	LazyPrefix      = "lazy:"
	TransientPrefix = "new:"
)

// Lazy defers resolution of a binding until Get is called. Injecting a
// *Lazy[T] instead of T lets an eager singleton depend on a lazy one.
type Lazy[T any] struct {
	c     *Container
	inner Provider
}

// Get resolves the wrapped binding, constructing it on first use.
func (l *Lazy[T]) Get() (T, error) {
	return cast[T](l.c.resolveProvider(l.inner))
}

// MustGet is like Get but panics on error.
func (l *Lazy[T]) MustGet() T {
	v, err := l.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// IsCreated reports whether the wrapped binding already holds an instance.
func (l *Lazy[T]) IsCreated() bool { return l.inner.IsInstanceCreated() }

// Provider returns the wrapped provider.
func (l *Lazy[T]) Provider() Provider { return l.inner }

func (*Lazy[T]) factoryWrapper() {}

// TransientFactory creates a new instance of a transient binding per call.
type TransientFactory[T any] struct {
	c     *Container
	inner Provider
}

// Create builds a new instance.
func (f *TransientFactory[T]) Create() (T, error) {
	return cast[T](f.c.resolveProvider(f.inner))
}

// MustCreate is like Create but panics on error.
func (f *TransientFactory[T]) MustCreate() T {
	v, err := f.Create()
	if err != nil {
		panic(err)
	}
	return v
}

// Provider returns the wrapped provider.
func (f *TransientFactory[T]) Provider() Provider { return f.inner }

func (*TransientFactory[T]) factoryWrapper() {}

// wrapper is implemented by *Lazy[T] and *TransientFactory[T]. Only the
// Builder can make a usable one.
type wrapper interface{ factoryWrapper() }

func isWrapperType(t reflect.Type) bool {
	wt := TypeOf[wrapper]()
	if t.Kind() != reflect.Pointer {
		t = reflect.PointerTo(t)
	}
	return t.Implements(wt)
}

// wrapFunc builds a wrapper value over inner once the container exists.
type wrapFunc func(c *Container, inner Provider) (reflect.Type, any)

func lazyWrap[T any]() wrapFunc {
	return func(c *Container, inner Provider) (reflect.Type, any) {
		return TypeOf[*Lazy[T]](), &Lazy[T]{c: c, inner: inner}
	}
}

func transientWrap[T any]() wrapFunc {
	return func(c *Container, inner Provider) (reflect.Type, any) {
		return TypeOf[*TransientFactory[T]](), &TransientFactory[T]{c: c, inner: inner}
	}
}

// newFactoryProvider registers the wrapper under the derived name when the
// inner binding is named, or under the wrapper type otherwise.
func newFactoryProvider(c *Container, inner Provider, prefix string, wrap wrapFunc) *FactoryProvider {
	wt, value := wrap(c, inner)
	name := ""
	if inner.Name() != "" {
		name = prefix + inner.Name()
	}
	return &FactoryProvider{
		providerCore: providerCore{
			realType:    wt,
			exposedType: wt,
			name:        name,
			lifetime:    LifetimeStatic,
			flags:       map[string]bool{"factory": true},
		},
		inner: inner,
		value: value,
	}
}

func cast[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, &InvalidCastError{Exposed: TypeOf[T](), Produced: reflect.TypeOf(v)}
	}
	return t, nil
}
