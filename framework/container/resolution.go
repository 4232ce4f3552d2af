package container

import "reflect"

// resolution tracks one top-level resolve call tree.
type resolution struct {
	// stack holds providers whose members are being injected, outermost first.
	stack []*providerCore
	// building holds providers whose factory is running.
	building map[*providerCore]bool
	// inProgress holds singletons allocated but not yet injected.
	inProgress map[*providerCore]any
	// finished holds singletons built by this resolution but not yet
	// published; pending keeps them in completion order.
	finished map[*providerCore]any
	pending  []*SingletonProvider

	// Guarded by Container.claimMu.
	claimed   []*SingletonProvider
	waiting   *SingletonProvider
	blockedOn chan struct{}
}

func newResolution() *resolution {
	return &resolution{
		building:   make(map[*providerCore]bool),
		inProgress: make(map[*providerCore]any),
		finished:   make(map[*providerCore]any),
	}
}

func (r *resolution) push(p *providerCore) { r.stack = append(r.stack, p) }
func (r *resolution) pop()                 { r.stack = r.stack[:len(r.stack)-1] }

func (r *resolution) onStack(p *providerCore) bool {
	for _, q := range r.stack {
		if q == p {
			return true
		}
	}
	return false
}

func (r *resolution) circular(p *providerCore) *CircularDependencyError {
	chain := make([]string, 0, len(r.stack)+1)
	for _, q := range r.stack {
		chain = append(chain, q.String())
	}
	return &CircularDependencyError{Chain: append(chain, p.String())}
}

// waitsOn reports whether r is, directly or through other resolutions,
// waiting for a singleton that target is building. Callers hold claimMu.
func (r *resolution) waitsOn(target *resolution) bool {
	for cur := r; cur != nil; {
		if cur == target {
			return true
		}
		if cur.waiting == nil {
			return false
		}
		cur = cur.waiting.owner
	}
	return false
}

// Resolver is the lookup surface shared by the Container and by the scope a
// Factory or the Injector runs in.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
	ResolveNamed(name string) (any, error)
	ResolveNamedAs(name string, t reflect.Type) (any, error)
	Contains(t reflect.Type) bool
	ContainsNamed(name string) bool
}

// scope is a Resolver bound to one resolution.
type scope struct {
	c   *Container
	res *resolution
}

func (s *scope) Resolve(t reflect.Type) (any, error) {
	p, err := s.c.lookup(t)
	if err != nil {
		return nil, err
	}
	return p.get(s)
}

func (s *scope) ResolveNamed(name string) (any, error) {
	return s.ResolveNamedAs(name, nil)
}

func (s *scope) ResolveNamedAs(name string, t reflect.Type) (any, error) {
	p, ok := s.c.lookupNamed(name, t)
	if !ok {
		return nil, &ServiceNotFoundError{Name: name, Type: t}
	}
	return p.get(s)
}

func (s *scope) Contains(t reflect.Type) bool   { return s.c.Contains(t) }
func (s *scope) ContainsNamed(name string) bool { return s.c.ContainsNamed(name) }
