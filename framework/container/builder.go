package container

import (
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Builder stages bindings and turns them into a frozen Container.
//
//	b := container.NewBuilder(container.WithLogger(log))
//	if err := b.Install(&game.Module{}); err != nil { ... }
//	c, err := b.Build()
//
// A Builder is not safe for concurrent use and can be built once.
type Builder struct {
	opts options
	log  logrus.FieldLogger

	bindings  []*Binding
	modules   []Module
	installed map[Module]bool
	handlers  []func(InstanceCreatedEvent)

	// deferring is set while a deferred module registers.
	deferring bool
	built     bool
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	o := newOptions(opts)
	return &Builder{
		opts:      o,
		log:       o.logger,
		installed: make(map[Module]bool),
	}
}

// Register stages bindings. A Static instance runs its Initialize hook here,
// since the container never constructs it.
func (b *Builder) Register(bindings ...*Binding) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	for _, bd := range bindings {
		if bd == nil {
			return errors.Wrap(ErrNilInstance, "container: nil binding")
		}
		if err := bd.validate(); err != nil {
			return err
		}
		if b.deferring {
			bd.Lazy()
		}
		if bd.lifetime == LifetimeStatic {
			if err := initialize(bd.instance); err != nil {
				return errors.Wrapf(err, "container: initializing static %s", typeName(bd.exposedType))
			}
		}
		b.bindings = append(b.bindings, bd)

		b.log.WithFields(logrus.Fields{
			"type":     typeName(bd.exposedType),
			"name":     bd.name,
			"lifetime": bd.lifetime.String(),
			"lazy":     bd.lazy,
		}).Debug("container: staged binding")
	}
	return nil
}

// Install lets each module stage its bindings. A module installed twice is
// registered once.
func (b *Builder) Install(modules ...Module) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	for _, m := range modules {
		if m == nil || b.installed[m] {
			continue
		}
		b.installed[m] = true

		b.deferring = isDeferred(m)
		err := m.Register(b)
		b.deferring = false
		if err != nil {
			return errors.Wrapf(err, "container: installing %T", m)
		}
		b.modules = append(b.modules, m)
	}
	return nil
}

// ScanConfiguration stages the services an already-built configuration
// object offers.
//
// Exported fields tagged `provide:"[name]"` become Static bindings of the
// field value, named when the tag carries a name. Exported methods named
// Provide* returning T or (T, error) become eager Singleton bindings of T;
// their parameters are resolved by type.
//
//	type Settings struct {
//	    Difficulty *Difficulty `provide:""`
//	    Seed       int64       `provide:"seed"`
//	}
//
//	func (s *Settings) ProvideRandom(clock *Clock) *rand.Rand { ... }
func (b *Builder) ScanConfiguration(cfg any) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	rv := reflect.ValueOf(cfg)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return errors.Wrap(ErrNilInstance, "container: scan configuration")
	}

	sv := reflect.Indirect(rv)
	if sv.Kind() == reflect.Struct {
		st := sv.Type()
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			name, ok := f.Tag.Lookup("provide")
			if !ok {
				continue
			}
			if !f.IsExported() {
				return errors.Errorf("container: %s.%s is tagged provide but unexported", st, f.Name)
			}
			fv := sv.Field(i)
			if isNilValue(fv) {
				return errors.Wrapf(ErrNilInstance, "container: %s.%s", st, f.Name)
			}
			if err := b.Register(StaticOf(f.Type, fv.Interface()).Named(name)); err != nil {
				return err
			}
		}
	}

	errType := TypeOf[error]()
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if !strings.HasPrefix(m.Name, "Provide") {
			continue
		}
		mt := m.Type
		if mt.NumOut() == 0 || mt.NumOut() > 2 || (mt.NumOut() == 2 && mt.Out(1) != errType) {
			return errors.Errorf("container: %s.%s must return T or (T, error)", rt, m.Name)
		}
		out := mt.Out(0)
		bd := &Binding{lifetime: LifetimeSingleton, realType: out, exposedType: out, factory: providerMethod(rv.Method(i))}
		if err := b.Register(bd); err != nil {
			return err
		}
	}
	return nil
}

// providerMethod adapts a bound Provide* method into a Factory.
func providerMethod(fn reflect.Value) Factory {
	ft := fn.Type()
	return func(r Resolver) (any, error) {
		args := make([]reflect.Value, ft.NumIn())
		for i := range args {
			v, err := r.Resolve(ft.In(i))
			if err != nil {
				return nil, err
			}
			if v == nil {
				args[i] = reflect.Zero(ft.In(i))
			} else {
				args[i] = reflect.ValueOf(v)
			}
		}
		out := fn.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		if isNilValue(out[0]) {
			return nil, nil
		}
		return out[0].Interface(), nil
	}
}

// OnInstanceCreated subscribes fn before Build, so it also sees the eager
// singletons Build constructs.
func (b *Builder) OnInstanceCreated(fn func(InstanceCreatedEvent)) {
	if fn != nil {
		b.handlers = append(b.handlers, fn)
	}
}

// Build validates the staged bindings and constructs every eager singleton.
//
// In order: key collisions, type compatibility, construction, and finally a
// check that no lazy singleton was constructed as a side effect.
func (b *Builder) Build() (*Container, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true
	start := time.Now()

	c := newContainer(b.opts)
	c.handlers = append(c.handlers, b.handlers...)
	c.modules = b.modules

	self := TypeOf[*Container]()
	if err := c.register(&StaticProvider{
		providerCore: providerCore{realType: self, exposedType: self},
		instance:     c,
	}); err != nil {
		return nil, b.fail(err)
	}

	ambiguous := make(map[reflect.Type]bool)
	for _, bd := range b.bindings {
		p := bd.provider()
		if err := c.register(p); err != nil {
			return nil, b.fail(err)
		}
		for _, w := range bd.wrappers(c, p) {
			if err := b.registerWrapper(c, w, ambiguous); err != nil {
				return nil, b.fail(err)
			}
		}
	}
	b.log.WithField("providers", len(c.providers)).Debug("container: keys indexed")

	for _, p := range c.providers {
		if err := b.check(c, p); err != nil {
			return nil, b.fail(err)
		}
	}
	b.log.Debug("container: bindings checked")

	eager := 0
	for _, p := range c.providers {
		sp, ok := p.(*SingletonProvider)
		if !ok || sp.lazy {
			continue
		}
		if _, err := c.resolveProvider(sp); err != nil {
			return nil, b.fail(err)
		}
		eager++
	}

	var early []string
	for _, p := range c.providers {
		if sp, ok := p.(*SingletonProvider); ok && sp.lazy && sp.IsInstanceCreated() {
			early = append(early, sp.String())
		}
	}
	if len(early) > 0 {
		return nil, b.fail(&LazyOrderError{Names: early})
	}

	b.log.WithFields(logrus.Fields{
		"providers": len(c.providers),
		"eager":     eager,
		"modules":   len(c.modules),
		"took":      time.Since(start).String(),
	}).Info("container: built")
	return c, nil
}

// registerWrapper indexes a factory wrapper. Two unnamed bindings producing
// the same wrapper type leave it unindexed by type: neither wrapper can be
// chosen, and both inner bindings stay resolvable on their own.
func (b *Builder) registerWrapper(c *Container, w *FactoryProvider, ambiguous map[reflect.Type]bool) error {
	if w.Name() != "" {
		return c.register(w)
	}
	t := w.ExposedType()
	if ambiguous[t] {
		return nil
	}
	if prev, ok := c.byType[t].(*FactoryProvider); ok {
		ambiguous[t] = true
		c.unregister(prev)
		b.log.WithField("type", typeName(t)).Debug("container: ambiguous factory wrapper dropped")
		return nil
	}
	return c.register(w)
}

// check verifies one provider before anything is constructed.
func (b *Builder) check(c *Container, p Provider) error {
	core := p.core()
	if rt := core.realType; rt != nil && !rt.AssignableTo(core.exposedType) {
		return &InvalidCastError{Name: core.name, Exposed: core.exposedType, Produced: rt}
	}
	if core.factory != nil || p.Lifetime() == LifetimeStatic {
		return nil
	}
	if err := checkConstructible(core.realType); err != nil {
		return err
	}
	if !core.pointsSet {
		if _, err := c.scanner.Scan(core.realType); err != nil {
			return errors.Wrapf(err, "container: scanning %s", core)
		}
	}
	return nil
}

func (b *Builder) fail(err error) error {
	b.log.WithError(err).Error("container: build failed")
	return err
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
