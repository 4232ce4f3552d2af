package container

import (
	"io"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ── Options ──────────────────────────────────────────────────────────────────

// Option configures a Builder and the Container it builds.
type Option func(*options)

type options struct {
	logger               logrus.FieldLogger
	scanner              Scanner
	createIfNotFound     bool
	resolveAllTransients bool
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithScanner replaces the default TagScanner.
func WithScanner(s Scanner) Option {
	return func(o *options) {
		if s != nil {
			o.scanner = s
		}
	}
}

// WithCreateIfNotFound makes Resolve default-construct unbound struct types
// as unregistered transients.
func WithCreateIfNotFound(enabled bool) Option {
	return func(o *options) { o.createIfNotFound = enabled }
}

// WithResolveAllTransients makes ResolveAll include one new instance of
// every matching transient binding.
func WithResolveAllTransients(enabled bool) Option {
	return func(o *options) { o.resolveAllTransients = enabled }
}

func newOptions(opts []Option) options {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	o := options{logger: discard, scanner: NewTagScanner()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ── Container ────────────────────────────────────────────────────────────────

// Container is the frozen registry produced by Builder.Build.
//
// Bindings are indexed in two independent maps: unnamed bindings by their
// exposed type, named bindings by name. After Build the maps never change,
// so lookups need no lock. First construction of a singleton is claimed by
// one resolution at a time; see claim.
type Container struct {
	log      logrus.FieldLogger
	scanner  Scanner
	injector Injector
	opts     options

	providers []Provider
	byType    map[reflect.Type]Provider
	byName    map[string]Provider

	// fabricated caches providers made up for unbound types when
	// createIfNotFound is on.
	fabricated sync.Map

	// claimMu guards singleton ownership and the waits between resolutions.
	claimMu sync.Mutex

	hmu      sync.RWMutex
	handlers []func(InstanceCreatedEvent)

	modules []Module
	bootMu  sync.Mutex
	booted  bool
}

func newContainer(o options) *Container {
	return &Container{
		log:     o.logger,
		scanner: o.scanner,
		opts:    o,
		byType:  make(map[reflect.Type]Provider),
		byName:  make(map[string]Provider),
	}
}

// register indexes p, rejecting type-key and name-key collisions.
func (c *Container) register(p Provider) error {
	if name := p.Name(); name != "" {
		if prev, ok := c.byName[name]; ok {
			return &DuplicateServiceError{Key: name, ByName: true, Existing: prev, Added: p}
		}
		c.byName[name] = p
	} else {
		t := p.ExposedType()
		if prev, ok := c.byType[t]; ok {
			return &DuplicateServiceError{Key: typeName(t), Existing: prev, Added: p}
		}
		c.byType[t] = p
	}
	c.providers = append(c.providers, p)
	return nil
}

// unregister removes a provider indexed by type. Only Build calls it.
func (c *Container) unregister(p Provider) {
	delete(c.byType, p.ExposedType())
	for i, q := range c.providers {
		if q == p {
			c.providers = append(c.providers[:i], c.providers[i+1:]...)
			break
		}
	}
}

func (c *Container) newScope() *scope {
	return &scope{c: c, res: newResolution()}
}

func (c *Container) resolveProvider(p Provider) (any, error) {
	return p.get(c.newScope())
}

// ── Construction ─────────────────────────────────────────────────────────────

// claim makes res the builder of p. It reports created when p was published
// in the meantime. While another resolution builds p, claim waits for it,
// unless that resolution is itself waiting on res: then claim returns
// errContended so res can give its claims back.
func (c *Container) claim(res *resolution, p *SingletonProvider) (created bool, err error) {
	c.claimMu.Lock()
	defer c.claimMu.Unlock()
	for {
		switch {
		case p.created.Load():
			return true, nil
		case p.owner == nil:
			p.owner = res
			p.done = make(chan struct{})
			res.claimed = append(res.claimed, p)
			return false, nil
		case p.owner == res:
			return false, res.circular(&p.providerCore)
		case p.owner.waitsOn(res):
			res.blockedOn = p.done
			return false, errContended
		}

		done := p.done
		res.waiting = p
		c.claimMu.Unlock()
		<-done
		c.claimMu.Lock()
		res.waiting = nil
	}
}

// release gives back every claim res holds. With commit, the singletons res
// finished are published first and their events fire in completion order.
// It returns the channel res was blocked on, if any.
func (c *Container) release(res *resolution, commit bool) chan struct{} {
	c.claimMu.Lock()
	if commit {
		for _, p := range res.pending {
			p.instance = res.finished[&p.providerCore]
			p.created.Store(true)
		}
	}
	for _, p := range res.claimed {
		p.owner = nil
		close(p.done)
		p.done = nil
	}
	blocked := res.blockedOn
	pending := res.pending
	res.claimed, res.pending, res.blockedOn = nil, nil, nil
	res.finished = make(map[*providerCore]any)
	c.claimMu.Unlock()

	if commit {
		for _, p := range pending {
			c.created(p.event(p.instance))
		}
	}
	return blocked
}

// ── Lookup ───────────────────────────────────────────────────────────────────

func (c *Container) lookup(t reflect.Type) (Provider, error) {
	if p, ok := c.byType[t]; ok {
		return p, nil
	}
	if c.opts.createIfNotFound && t != nil && !isWrapperType(t) {
		return c.fabricate(t)
	}
	return nil, &ServiceNotFoundError{Type: t}
}

// lookupNamed finds the binding called name. When t is given and the binding
// is not assignable to it, the factory wrappers derived from name are tried.
func (c *Container) lookupNamed(name string, t reflect.Type) (Provider, bool) {
	if p, ok := c.byName[name]; ok && (t == nil || p.ExposedType().AssignableTo(t)) {
		return p, true
	}
	if t == nil {
		return nil, false
	}
	for _, prefix := range []string{LazyPrefix, TransientPrefix} {
		if p, ok := c.byName[prefix+name]; ok && p.ExposedType().AssignableTo(t) {
			return p, true
		}
	}
	return nil, false
}

func (c *Container) fabricate(t reflect.Type) (Provider, error) {
	if p, ok := c.fabricated.Load(t); ok {
		return p.(Provider), nil
	}
	if err := checkConstructible(t); err != nil {
		return nil, err
	}
	points, err := c.scanner.Scan(t)
	if err != nil {
		return nil, errors.Wrapf(err, "container: scanning %s", t)
	}

	p := &TransientProvider{providerCore: providerCore{
		realType:    t,
		exposedType: t,
		lifetime:    LifetimeTransient,
		flags:       map[string]bool{"fabricated": true},
		points:      points,
		pointsSet:   true,
	}}
	actual, _ := c.fabricated.LoadOrStore(t, p)
	c.log.WithField("type", t.String()).Debug("container: fabricated provider for unbound type")
	return actual.(Provider), nil
}

// ── Resolution ───────────────────────────────────────────────────────────────

// Resolve returns an instance of the binding indexed under t.
func (c *Container) Resolve(t reflect.Type) (any, error) {
	return c.newScope().Resolve(t)
}

// ResolveNamed returns an instance of the binding called name.
func (c *Container) ResolveNamed(name string) (any, error) {
	return c.newScope().ResolveNamed(name)
}

// ResolveNamedAs locates the binding by name, then checks it is assignable
// to t. A mismatch is reported as *ServiceNotFoundError.
func (c *Container) ResolveNamedAs(name string, t reflect.Type) (any, error) {
	return c.newScope().ResolveNamedAs(name, t)
}

// TryResolve is Resolve reporting failure as ok == false.
func (c *Container) TryResolve(t reflect.Type) (any, bool) {
	v, err := c.Resolve(t)
	return v, err == nil
}

// TryResolveNamed is ResolveNamed reporting failure as ok == false.
func (c *Container) TryResolveNamed(name string) (any, bool) {
	v, err := c.ResolveNamed(name)
	return v, err == nil
}

// TryResolveNamedAs is ResolveNamedAs reporting failure as ok == false.
func (c *Container) TryResolveNamedAs(name string, t reflect.Type) (any, bool) {
	v, err := c.ResolveNamedAs(name, t)
	return v, err == nil
}

// ResolveOr resolves t if it is bound, otherwise returns fallback().
// The fallback value is never registered.
func (c *Container) ResolveOr(t reflect.Type, fallback func() any) (any, error) {
	if !c.Contains(t) {
		return fallback(), nil
	}
	return c.Resolve(t)
}

// ResolveNamedOr resolves name if it is bound, otherwise returns fallback().
func (c *Container) ResolveNamedOr(name string, fallback func() any) (any, error) {
	if !c.ContainsNamed(name) {
		return fallback(), nil
	}
	return c.ResolveNamed(name)
}

// ResolveAll returns the instances of every Static and Singleton binding
// whose exposed type is assignable to t, in registration order. Lazy
// singletons are constructed. Transients are only included when the
// container was built WithResolveAllTransients.
func (c *Container) ResolveAll(t reflect.Type) ([]any, error) {
	if t == nil {
		return nil, &ServiceNotFoundError{}
	}
	s := c.newScope()
	var out []any
	for _, p := range c.providers {
		if _, wrapper := p.(*FactoryProvider); wrapper {
			continue
		}
		if p.Lifetime() == LifetimeTransient && !c.opts.resolveAllTransients {
			continue
		}
		if !p.ExposedType().AssignableTo(t) {
			continue
		}
		v, err := p.get(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// InjectServices populates the injection points of an instance the
// container did not construct. It may be run again; each run re-resolves
// every point. The post-construction hook is not invoked.
func (c *Container) InjectServices(instance any) error {
	if instance == nil {
		return ErrNilInstance
	}
	points, err := c.scanner.Scan(reflect.TypeOf(instance))
	if err != nil {
		return err
	}
	return c.injector.Inject(instance, points, c.newScope())
}

// ── Inspection ───────────────────────────────────────────────────────────────

// Contains reports whether a binding is indexed under t. Nothing is built.
func (c *Container) Contains(t reflect.Type) bool {
	_, ok := c.byType[t]
	return ok
}

// ContainsNamed reports whether a binding is called name. Nothing is built.
func (c *Container) ContainsNamed(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// GetProvider returns the provider indexed under t.
func (c *Container) GetProvider(t reflect.Type) (Provider, error) {
	if p, ok := c.byType[t]; ok {
		return p, nil
	}
	return nil, &ServiceNotFoundError{Type: t}
}

// GetProviderNamed returns the provider called name.
func (c *Container) GetProviderNamed(name string) (Provider, error) {
	if p, ok := c.byName[name]; ok {
		return p, nil
	}
	return nil, &ServiceNotFoundError{Name: name}
}

// TryGetProvider is GetProvider reporting failure as ok == false.
func (c *Container) TryGetProvider(t reflect.Type) (Provider, bool) {
	p, ok := c.byType[t]
	return p, ok
}

// TryGetProviderNamed is GetProviderNamed reporting failure as ok == false.
func (c *Container) TryGetProviderNamed(name string) (Provider, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Providers returns every binding, factory wrappers included, in
// registration order.
func (c *Container) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// ProvidersOf returns every binding of any lifetime whose exposed type is
// assignable to t. Factory wrappers are left out.
func (c *Container) ProvidersOf(t reflect.Type) []Provider {
	var out []Provider
	for _, p := range c.providers {
		if _, wrapper := p.(*FactoryProvider); wrapper {
			continue
		}
		if p.ExposedType().AssignableTo(t) {
			out = append(out, p)
		}
	}
	return out
}

// ── Modules ──────────────────────────────────────────────────────────────────

// Boot calls Boot on every installed module that implements Booter, in
// installation order. Subsequent calls are no-ops.
func (c *Container) Boot() error {
	c.bootMu.Lock()
	defer c.bootMu.Unlock()
	if c.booted {
		return nil
	}
	c.booted = true
	for _, m := range c.modules {
		if b, ok := m.(Booter); ok {
			if err := b.Boot(c); err != nil {
				return errors.Wrapf(err, "container: booting %T", m)
			}
		}
	}
	return nil
}

// Booted reports whether Boot has been called.
func (c *Container) Booted() bool {
	c.bootMu.Lock()
	defer c.bootMu.Unlock()
	return c.booted
}

// Modules returns the installed modules.
func (c *Container) Modules() []Module {
	return c.modules
}
