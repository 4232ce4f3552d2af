package container

import (
	"reflect"

	"github.com/pkg/errors"
)

// Binding is a staged registration, configured fluently and turned into a
// Provider at Build.
//
//	b.Register(
//	    container.Singleton[*Clock](),
//	    container.Singleton(NewLevel).Named("level").Lazy(),
//	    container.Transient[*Bullet]().WithMetadata("pool", "bullets"),
//	    container.Static(cfg).Expose(container.TypeOf[Settings]()),
//	)
type Binding struct {
	lifetime    Lifetime
	realType    reflect.Type
	exposedType reflect.Type
	name        string
	lazy        bool
	instance    any
	factory     Factory
	points      []InjectionPoint
	pointsSet   bool
	metadata    map[string]any
	flags       map[string]bool
	err         error

	lazyWrap      wrapFunc
	transientWrap wrapFunc
	wantLazyWrap  bool
}

// Singleton binds T as a singleton. Without a factory, T is allocated
// with its zero value and then injected.
func Singleton[T any](factory ...func(r Resolver) (T, error)) *Binding {
	b := typedBinding[T](LifetimeSingleton, factory)
	b.lazyWrap = lazyWrap[T]()
	return b
}

// Transient binds T as a transient. Without a factory, T is allocated
// with its zero value and then injected.
func Transient[T any](factory ...func(r Resolver) (T, error)) *Binding {
	b := typedBinding[T](LifetimeTransient, factory)
	b.lazyWrap = lazyWrap[T]()
	b.transientWrap = transientWrap[T]()
	return b
}

// Static binds an instance built outside the container, exposed as T.
func Static[T any](instance T) *Binding {
	b := &Binding{
		lifetime:    LifetimeStatic,
		exposedType: TypeOf[T](),
		instance:    instance,
		lazyWrap:    lazyWrap[T](),
	}
	if v := any(instance); v != nil {
		b.realType = reflect.TypeOf(v)
	}
	return b
}

func typedBinding[T any](lt Lifetime, factory []func(Resolver) (T, error)) *Binding {
	t := TypeOf[T]()
	b := &Binding{lifetime: lt, realType: t, exposedType: t}
	if len(factory) > 0 && factory[0] != nil {
		f := factory[0]
		b.factory = func(r Resolver) (any, error) { return f(r) }
	}
	return b
}

// SingletonOf binds the runtime type t as a singleton. factory is nil, to
// default-construct t, or a func(Resolver) (X, error); Build fails with
// *InvalidCastError when X is not assignable to t. No factory wrappers are
// registered unless ExposeAs supplies their type.
func SingletonOf(t reflect.Type, factory any) *Binding {
	return untypedBinding(LifetimeSingleton, t, factory)
}

// TransientOf binds the runtime type t as a transient. factory follows the
// rules of SingletonOf.
func TransientOf(t reflect.Type, factory any) *Binding {
	return untypedBinding(LifetimeTransient, t, factory)
}

func untypedBinding(lt Lifetime, t reflect.Type, factory any) *Binding {
	b := &Binding{lifetime: lt, realType: t, exposedType: t}
	if factory == nil {
		return b
	}
	f, produced, err := adaptFactory(factory)
	if err != nil {
		b.err = errors.Wrapf(err, "container: factory for %s", typeName(t))
		return b
	}
	b.factory, b.realType = f, produced
	return b
}

var resolverType = TypeOf[Resolver]()

// adaptFactory checks fn is a func(Resolver) (X, error) and returns it as a
// Factory together with X.
func adaptFactory(fn any) (Factory, reflect.Type, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() != 1 || ft.In(0) != resolverType ||
		ft.NumOut() != 2 || ft.Out(1) != TypeOf[error]() {
		return nil, nil, errors.Errorf("%s is not a func(Resolver) (T, error)", ft)
	}
	if fv.IsNil() {
		return nil, nil, errors.New("nil func")
	}
	return func(r Resolver) (any, error) {
		out := fv.Call([]reflect.Value{reflect.ValueOf(&r).Elem()})
		if !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		if isNilValue(out[0]) {
			return nil, nil
		}
		return out[0].Interface(), nil
	}, ft.Out(0), nil
}

// StaticOf binds instance exposed as the runtime type t.
func StaticOf(t reflect.Type, instance any) *Binding {
	b := &Binding{lifetime: LifetimeStatic, exposedType: t, instance: instance}
	if instance != nil {
		b.realType = reflect.TypeOf(instance)
	}
	return b
}

// ExposeAs is Expose for a type known at compile time. The binding's factory
// wrappers follow the exposed type: a lazy singleton exposed as I is also
// reachable as *Lazy[I], a transient as *TransientFactory[I].
//
//	container.ExposeAs[Input](container.Singleton[*Keyboard]().Lazy())
func ExposeAs[I any](b *Binding) *Binding {
	b.exposedType = TypeOf[I]()
	b.lazyWrap = lazyWrap[I]()
	if b.lifetime == LifetimeTransient {
		b.transientWrap = transientWrap[I]()
	}
	return b
}

// Named indexes the binding by name instead of by type.
func (b *Binding) Named(name string) *Binding {
	b.name = name
	return b
}

// Expose changes the type lookups match against. The produced type must be
// assignable to t; Build fails with *InvalidCastError otherwise. Factory
// wrappers keep the produced type: Singleton[*Impl]().Expose(I).Lazy() is
// reachable as *Lazy[*Impl], not *Lazy[I]. Use ExposeAs for the latter.
func (b *Binding) Expose(t reflect.Type) *Binding {
	b.exposedType = t
	return b
}

// Lazy defers a singleton's construction to its first resolve. It is
// ignored for other lifetimes.
func (b *Binding) Lazy() *Binding {
	if b.lifetime == LifetimeSingleton {
		b.lazy = true
	}
	return b
}

// WithMetadata attaches a value carried on InstanceCreatedEvent.
func (b *Binding) WithMetadata(key string, value any) *Binding {
	if b.metadata == nil {
		b.metadata = make(map[string]any)
	}
	b.metadata[key] = value
	return b
}

// WithFlag attaches a flag carried on InstanceCreatedEvent.
func (b *Binding) WithFlag(key string, value bool) *Binding {
	if b.flags == nil {
		b.flags = make(map[string]bool)
	}
	b.flags[key] = value
	return b
}

// WithPoints replaces scanning with an explicit list of injection points.
func (b *Binding) WithPoints(points ...InjectionPoint) *Binding {
	b.points = points
	b.pointsSet = true
	return b
}

// WithLazyFactory also registers a *Lazy[T] wrapper. Lazy singletons get
// one automatically.
func (b *Binding) WithLazyFactory() *Binding {
	b.wantLazyWrap = true
	return b
}

// Lifetime returns the staged lifetime.
func (b *Binding) Lifetime() Lifetime { return b.lifetime }

// Name returns the staged name.
func (b *Binding) Name() string { return b.name }

func (b *Binding) validate() error {
	if b.err != nil {
		return b.err
	}
	if b.exposedType == nil {
		return errors.Wrap(ErrNilInstance, "container: binding without a type")
	}
	if b.lifetime == LifetimeStatic && b.instance == nil {
		return errors.Wrapf(ErrNilInstance, "container: static binding %s", b.exposedType)
	}
	return nil
}

func (b *Binding) provider() Provider {
	core := providerCore{
		realType:    b.realType,
		exposedType: b.exposedType,
		name:        b.name,
		lifetime:    b.lifetime,
		lazy:        b.lazy,
		metadata:    b.metadata,
		flags:       b.flags,
		factory:     b.factory,
		points:      b.points,
		pointsSet:   b.pointsSet,
	}
	switch b.lifetime {
	case LifetimeStatic:
		return &StaticProvider{providerCore: core, instance: b.instance}
	case LifetimeSingleton:
		return &SingletonProvider{providerCore: core}
	default:
		return &TransientProvider{providerCore: core}
	}
}

// wrappers builds the factory providers registered alongside inner.
func (b *Binding) wrappers(c *Container, inner Provider) []*FactoryProvider {
	var out []*FactoryProvider
	if b.lazyWrap != nil && (b.lazy || b.wantLazyWrap) {
		out = append(out, newFactoryProvider(c, inner, LazyPrefix, b.lazyWrap))
	}
	if b.transientWrap != nil && b.lifetime == LifetimeTransient {
		out = append(out, newFactoryProvider(c, inner, TransientPrefix, b.transientWrap))
	}
	return out
}
