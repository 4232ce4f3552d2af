// Package container provides a runtime dependency-injection container for Go.
//
// # Overview
//
// The container binds types and names to Providers, manages instance
// lifetimes, and populates the dependencies of the instances it builds.
// Bindings are staged into a Builder; Build validates the whole graph and
// constructs every eager singleton before the Container is handed out, so
// duplicate keys, incompatible types and bad lazy ordering never surface
// at first use.
//
// # Lifecycle
//
//  1. Stage: b := container.NewBuilder(opts...); b.Register(...); b.Install(modules...)
//  2. Build: c, err := b.Build()
//  3. Boot:  c.Boot()      runs Booter modules against the built container
//  4. Resolve
//
// # Lifetimes
//
//	// Static: built outside the container, returned as is
//	container.Static(settings)
//
//	// Singleton: built once, at Build unless lazy
//	container.Singleton[*Clock]()
//	container.Singleton(NewLevel).Named("level").Lazy()
//
//	// Transient: built on every resolve
//	container.Transient[*Bullet]()
//
// A binding without a factory is allocated with its zero value. Either way
// the instance's injection points are populated next, and Initialize runs
// last when the instance implements Initializer.
//
// # Keys
//
// Unnamed bindings are indexed by exposed type, named bindings by name. The
// two namespaces are independent; a key may be taken once.
//
//	container.Singleton[*SQLStore]().Expose(container.TypeOf[Store]())
//	container.Singleton[*Audio]().Named("music")
//
// # Injection
//
// The default TagScanner reads `inject` struct tags and Inject* methods:
//
//	type GameLoop struct {
//	    Clock *Clock                     `inject:""`
//	    Music *Audio                     `inject:"music,optional"`
//	    Level *container.Lazy[*Level]    `inject:"level"`
//	}
//
// # Cycles
//
// Singletons that reference each other resolve to the same identities: an
// instance is visible to the resolution as soon as it is allocated, before
// its members are injected. A transient that re-enters itself fails with
// *CircularDependencyError.
//
// Singletons built by one resolve are published together when the outermost
// resolve returns, or discarded together if any of them fails. Two goroutines
// that first resolve opposite ends of a lazy cycle do not deadlock: one backs
// off, waits for the other and then reads the published instances.
//
// # Factory wrappers
//
// Lazy singletons are also bound as *Lazy[T], transients as
// *TransientFactory[T]. Named bindings expose them under "lazy:"+name and
// "new:"+name as well. An eager singleton that needs a lazy one must hold a
// *Lazy[T]; depending on it directly makes Build fail with *LazyOrderError.
//
// T is the produced type, even after Expose. ExposeAs[I] makes the wrappers
// *Lazy[I] and *TransientFactory[I]. When two unnamed bindings would
// register the same wrapper type, neither gets it. Wrappers are never
// fabricated by WithCreateIfNotFound.
//
// # Modules
//
//	type GameModule struct{ container.BaseModule }
//
//	func (m *GameModule) Register(b *container.Builder) error {
//	    return b.Register(container.Singleton[*GameLoop]())
//	}
//
//	b.Install(&GameModule{}, container.Deferred(&ReportModule{}))
package container
