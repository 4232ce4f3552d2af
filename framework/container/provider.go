package container

import (
	"reflect"
	"strconv"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Factory builds an instance. It receives the Resolver of the resolution in
// progress, so dependencies it resolves take part in cycle detection.
type Factory func(r Resolver) (any, error)

// Provider is a strategy for obtaining an instance of one binding.
//
// Providers are created by the Builder; the concrete types are
// *StaticProvider, *SingletonProvider, *TransientProvider and *FactoryProvider.
type Provider interface {
	// RealType is the concrete type the provider produces.
	RealType() reflect.Type
	// ExposedType is the type lookups are matched against.
	ExposedType() reflect.Type
	// Name is the name-key, empty for bindings indexed by type.
	Name() string
	Lifetime() Lifetime
	// IsLazy is only meaningful for singletons.
	IsLazy() bool
	Metadata() map[string]any
	Flags() map[string]bool
	IsInstanceCreated() bool

	core() *providerCore
	get(s *scope) (any, error)
}

// providerCore holds what every provider shares.
type providerCore struct {
	realType    reflect.Type
	exposedType reflect.Type
	name        string
	lifetime    Lifetime
	lazy        bool
	metadata    map[string]any
	flags       map[string]bool
	factory     Factory

	// points is set when the binding carried explicit injection points;
	// otherwise the Scanner is asked for the produced value's type.
	points    []InjectionPoint
	pointsSet bool
}

func (p *providerCore) RealType() reflect.Type    { return p.realType }
func (p *providerCore) ExposedType() reflect.Type { return p.exposedType }
func (p *providerCore) Name() string              { return p.name }
func (p *providerCore) Lifetime() Lifetime        { return p.lifetime }
func (p *providerCore) IsLazy() bool              { return p.lazy }
func (p *providerCore) Metadata() map[string]any  { return p.metadata }
func (p *providerCore) Flags() map[string]bool    { return p.flags }
func (p *providerCore) core() *providerCore       { return p }

func (p *providerCore) String() string {
	if p.name != "" {
		return strconv.Quote(p.name) + " (" + typeName(p.exposedType) + ")"
	}
	return typeName(p.exposedType)
}

// construct allocates the instance with its injectable members left unset.
func (p *providerCore) construct(s *scope) (any, error) {
	if p.factory == nil {
		return newInstance(p.realType)
	}

	s.res.building[p] = true
	v, err := p.factory(s)
	delete(s.res.building, p)

	if err != nil {
		return nil, errors.Wrapf(err, "container: constructing %s", p)
	}
	if v == nil || isNilValue(reflect.ValueOf(v)) {
		return nil, errors.Wrapf(ErrNilInstance, "container: constructing %s", p)
	}
	if got := reflect.TypeOf(v); !got.AssignableTo(p.exposedType) {
		return nil, &InvalidCastError{Name: p.name, Exposed: p.exposedType, Produced: got}
	}
	return v, nil
}

// inject populates v's injection points through the resolution scope.
func (p *providerCore) inject(s *scope, v any) error {
	// Values a factory returned by value cannot be populated.
	if reflect.ValueOf(v).Kind() != reflect.Pointer {
		return nil
	}
	points := p.points
	if !p.pointsSet {
		var err error
		if points, err = s.c.scanner.Scan(reflect.TypeOf(v)); err != nil {
			return errors.Wrapf(err, "container: scanning %s", p)
		}
	}
	if len(points) == 0 {
		return nil
	}
	return s.c.injector.Inject(v, points, s)
}

// finish runs the post-construction hook and unwraps value-type structs
// that were allocated behind a pointer for injection.
func (p *providerCore) finish(v any) (any, error) {
	if err := initialize(v); err != nil {
		return nil, errors.Wrapf(err, "container: initializing %s", p)
	}
	if p.realType != nil && p.realType.Kind() == reflect.Struct {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.Type().Elem() == p.realType {
			return rv.Elem().Interface(), nil
		}
	}
	return v, nil
}

func (p *providerCore) event(instance any) InstanceCreatedEvent {
	return InstanceCreatedEvent{
		Instance: instance,
		Lifetime: p.lifetime,
		Name:     p.name,
		Type:     p.exposedType,
		Metadata: p.metadata,
		Flags:    p.flags,
	}
}

// ── Static ───────────────────────────────────────────────────────────────────

// StaticProvider wraps an instance built outside the container.
type StaticProvider struct {
	providerCore
	instance any
}

func (p *StaticProvider) IsInstanceCreated() bool { return true }

// Instance returns the wrapped value.
func (p *StaticProvider) Instance() any { return p.instance }

func (p *StaticProvider) get(*scope) (any, error) { return p.instance, nil }

// ── Singleton ────────────────────────────────────────────────────────────────

// SingletonProvider builds its instance at most once.
//
// The instance is published to the resolution as soon as it is allocated and
// before its members are injected, so singletons that reference each other
// (or themselves) resolve to the same identity instead of recursing.
//
// A resolution claims every singleton it starts building. Nothing is
// published until the outermost claim completes: then every singleton the
// resolution finished becomes visible at once, or, on failure, none does.
type SingletonProvider struct {
	providerCore

	created  atomic.Bool
	instance any

	// Guarded by Container.claimMu.
	owner *resolution
	done  chan struct{}
}

func (p *SingletonProvider) IsInstanceCreated() bool { return p.created.Load() }

// Instance returns the built instance, or nil before construction.
func (p *SingletonProvider) Instance() any {
	if !p.created.Load() {
		return nil
	}
	return p.instance
}

func (p *SingletonProvider) get(s *scope) (any, error) {
	if p.created.Load() {
		return p.instance, nil
	}
	core := &p.providerCore
	if v, ok := s.res.finished[core]; ok {
		return v, nil
	}
	if v, ok := s.res.inProgress[core]; ok {
		return v, nil
	}
	if s.res.building[core] {
		return nil, s.res.circular(core)
	}

	root := len(s.res.claimed) == 0
	for {
		v, err := p.build(s)
		if !root {
			return v, err
		}
		if err == nil {
			s.c.release(s.res, true)
			return v, nil
		}
		wait := s.c.release(s.res, false)
		if wait == nil || !errors.Is(err, errContended) {
			return nil, err
		}
		// Another resolution needs what this one had claimed. Let it
		// finish, then start over.
		<-wait
		if p.created.Load() {
			return p.instance, nil
		}
	}
}

func (p *SingletonProvider) build(s *scope) (any, error) {
	created, err := s.c.claim(s.res, p)
	if err != nil {
		return nil, err
	}
	if created {
		return p.instance, nil
	}
	core := &p.providerCore

	v, err := p.construct(s)
	if err != nil {
		return nil, err
	}

	s.res.inProgress[core] = v
	s.res.push(core)
	err = p.inject(s, v)
	s.res.pop()
	delete(s.res.inProgress, core)
	if err != nil {
		return nil, err
	}

	instance, err := p.finish(v)
	if err != nil {
		return nil, err
	}
	s.res.finished[core] = instance
	s.res.pending = append(s.res.pending, p)
	return instance, nil
}

// ── Transient ────────────────────────────────────────────────────────────────

// TransientProvider builds a new instance on every resolve.
type TransientProvider struct {
	providerCore
}

func (p *TransientProvider) IsInstanceCreated() bool { return false }

func (p *TransientProvider) get(s *scope) (any, error) {
	core := &p.providerCore
	if s.res.building[core] {
		return nil, s.res.circular(core)
	}

	v, err := p.construct(s)
	if err != nil {
		return nil, err
	}

	// The stack check happens after construction: a transient cycle is only
	// visible once the re-entering member injection asks for a new instance.
	if s.res.onStack(core) {
		return nil, s.res.circular(core)
	}
	s.res.push(core)
	err = p.inject(s, v)
	s.res.pop()
	if err != nil {
		return nil, err
	}

	instance, err := p.finish(v)
	if err != nil {
		return nil, err
	}
	s.c.created(p.event(instance))
	return instance, nil
}

// ── Factory wrappers ─────────────────────────────────────────────────────────

// FactoryProvider exposes a *Lazy[T] or *TransientFactory[T] capability over
// another provider.
type FactoryProvider struct {
	providerCore
	inner Provider
	value any
}

func (p *FactoryProvider) IsInstanceCreated() bool { return true }

// Inner returns the wrapped provider.
func (p *FactoryProvider) Inner() Provider { return p.inner }

func (p *FactoryProvider) get(*scope) (any, error) { return p.value, nil }

// ── Helpers ──────────────────────────────────────────────────────────────────

// ProviderInfo is a serialisable description of a provider.
type ProviderInfo struct {
	Name     string          `json:"name,omitempty"`
	Type     string          `json:"type"`
	RealType string          `json:"realType"`
	Lifetime string          `json:"lifetime"`
	Lazy     bool            `json:"lazy,omitempty"`
	Created  bool            `json:"created"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Flags    map[string]bool `json:"flags,omitempty"`
	Wraps    string          `json:"wraps,omitempty"`
}

// Describe returns the ProviderInfo for p.
func Describe(p Provider) ProviderInfo {
	info := ProviderInfo{
		Name:     p.Name(),
		Type:     typeName(p.ExposedType()),
		RealType: typeName(p.RealType()),
		Lifetime: p.Lifetime().String(),
		Lazy:     p.IsLazy(),
		Created:  p.IsInstanceCreated(),
		Metadata: p.Metadata(),
		Flags:    p.Flags(),
	}
	if fp, ok := p.(*FactoryProvider); ok {
		info.Wraps = fp.inner.core().String()
	}
	return info
}

func describe(p Provider) string {
	if p == nil {
		return "<nil>"
	}
	return p.core().String() + " " + p.Lifetime().String()
}

// checkConstructible reports whether t can be allocated without a factory.
func checkConstructible(t reflect.Type) error {
	switch {
	case t == nil:
		return &UnsupportedConstructionError{Type: t, Reason: "no type"}
	case t.Kind() == reflect.Interface:
		return &UnsupportedConstructionError{Type: t, Reason: "interface type"}
	case isWrapperType(t):
		return &UnsupportedConstructionError{Type: t, Reason: "factory wrappers are made by the Builder"}
	case t.Kind() == reflect.Struct:
		return nil
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return nil
	default:
		return &UnsupportedConstructionError{Type: t, Reason: "unsupported kind " + t.Kind().String()}
	}
}

// newInstance allocates a zero value of t. Struct values are allocated
// behind a pointer so they can be injected; finish unwraps them.
func newInstance(t reflect.Type) (any, error) {
	if err := checkConstructible(t); err != nil {
		return nil, err
	}
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface(), nil
	}
	return reflect.New(t).Interface(), nil
}

// initialize invokes the post-construction hook if v has one.
func initialize(v any) error {
	if in, ok := v.(Initializer); ok {
		return in.Initialize()
	}
	return nil
}
