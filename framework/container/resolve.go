package container

// ── Generic helpers ──────────────────────────────────────────────────────────
//
// These wrap the reflect.Type based API so call sites need no assertion:
//
//	loop, err := container.Resolve[*GameLoop](c)
//	level := container.MustResolveNamed[*Level](c, "level")

// Resolve returns the binding indexed under T.
func Resolve[T any](r Resolver) (T, error) {
	return cast[T](r.Resolve(TypeOf[T]()))
}

// ResolveNamed returns the binding called name, which must be assignable
// to T.
func ResolveNamed[T any](r Resolver, name string) (T, error) {
	return cast[T](r.ResolveNamedAs(name, TypeOf[T]()))
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}

// MustResolveNamed is like ResolveNamed but panics on error.
func MustResolveNamed[T any](r Resolver, name string) T {
	v, err := ResolveNamed[T](r, name)
	if err != nil {
		panic(err)
	}
	return v
}

// TryResolve is Resolve reporting failure as ok == false.
func TryResolve[T any](r Resolver) (T, bool) {
	v, err := Resolve[T](r)
	return v, err == nil
}

// ResolveAll returns every Static and Singleton instance assignable to T.
func ResolveAll[T any](c *Container) ([]T, error) {
	all, err := c.ResolveAll(TypeOf[T]())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, v := range all {
		t, err := cast[T](v, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ResolveOr resolves T if it is bound, otherwise returns fallback().
func ResolveOr[T any](c *Container, fallback func() T) (T, error) {
	if !c.Contains(TypeOf[T]()) {
		return fallback(), nil
	}
	return Resolve[T](c)
}

// ResolveNamedOr resolves name as T if it is bound, otherwise returns
// fallback().
func ResolveNamedOr[T any](c *Container, name string, fallback func() T) (T, error) {
	if !c.ContainsNamed(name) {
		return fallback(), nil
	}
	return ResolveNamed[T](c, name)
}
