package container

// ── Module interface ─────────────────────────────────────────────────────────

// Module is a unit that stages bindings into a Builder.
//
// Register runs before Build, so it must not resolve anything. Modules that
// need the built container implement Booter as well.
//
//	type GameModule struct{ container.BaseModule }
//
//	func (m *GameModule) Register(b *container.Builder) error {
//	    return b.Register(
//	        container.Singleton[*GameLoop](),
//	        container.Transient[*Bullet](),
//	    )
//	}
//
//	func (m *GameModule) Boot(c *container.Container) error {
//	    loop, err := container.Resolve[*GameLoop](c)
//	    if err != nil {
//	        return err
//	    }
//	    return loop.Start()
//	}
type Module interface {
	Register(b *Builder) error
}

// Booter is implemented by modules that run code once the container is
// built. Container.Boot calls it in installation order.
type Booter interface {
	Boot(c *Container) error
}

// Deferrer is implemented by modules whose singletons should all be staged
// as lazy, so nothing they bind is constructed until first use.
type Deferrer interface {
	IsDeferred() bool
}

// ── BaseModule ───────────────────────────────────────────────────────────────

// BaseModule gives no-op Boot and IsDeferred implementations. Embed it and
// override what you need.
type BaseModule struct{}

func (BaseModule) Boot(*Container) error { return nil }
func (BaseModule) IsDeferred() bool      { return false }

// ── Deferred ─────────────────────────────────────────────────────────────────

// Deferred wraps m so that every singleton it registers is lazy.
//
//	b.Install(container.Deferred(&ReportingModule{}))
func Deferred(m Module) Module {
	return &deferredModule{Module: m}
}

type deferredModule struct {
	Module
}

func (d *deferredModule) IsDeferred() bool { return true }

func (d *deferredModule) Boot(c *Container) error {
	if b, ok := d.Module.(Booter); ok {
		return b.Boot(c)
	}
	return nil
}

func isDeferred(m Module) bool {
	d, ok := m.(Deferrer)
	return ok && d.IsDeferred()
}
