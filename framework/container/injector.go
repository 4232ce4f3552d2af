package container

import (
	"reflect"

	"github.com/pkg/errors"
)

// MemberKind distinguishes field and method injection points.
type MemberKind int

const (
	FieldMember MemberKind = iota
	MethodMember
)

// InjectionPoint describes one dependency of a type.
//
// Field points carry the field index path and declared type. Method points
// carry one Parameter per argument; the method is called once, after every
// argument resolved.
type InjectionPoint struct {
	Member   string
	Kind     MemberKind
	Index    []int
	Type     reflect.Type
	Name     string
	Nullable bool
	Params   []Parameter
}

// Parameter is one argument of a method injection point.
type Parameter struct {
	Type     reflect.Type
	Name     string
	Nullable bool
}

// Initializer is implemented by instances that need a post-construction
// hook. Initialize runs once, after every injection point was populated.
type Initializer interface {
	Initialize() error
}

// Injector populates injection points of an existing instance.
type Injector struct{}

// Inject resolves every point through r and assigns it to instance, which
// must be a non-nil pointer to a struct.
//
// A Nullable point whose dependency is not bound keeps its zero value; any
// other failure is returned as an *InjectMemberError.
func (Injector) Inject(instance any, points []InjectionPoint, r Resolver) error {
	rv := reflect.ValueOf(instance)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.Wrapf(ErrNotInjectable, "container: inject %T", instance)
	}

	for _, pt := range points {
		var err error
		switch pt.Kind {
		case MethodMember:
			err = injectMethod(rv, pt, r)
		default:
			err = injectField(rv, pt, r)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func injectField(rv reflect.Value, pt InjectionPoint, r Resolver) error {
	fv, err := rv.Elem().FieldByIndexErr(pt.Index)
	if err != nil || !fv.CanSet() {
		return &InjectMemberError{Target: rv.Type(), Member: pt.Member, Err: ErrNotInjectable}
	}

	val, ok, err := resolveArg(r, pt.Type, pt.Name, pt.Nullable)
	if err != nil {
		return &InjectMemberError{Target: rv.Type(), Member: pt.Member, Err: err}
	}
	if ok {
		fv.Set(val)
	}
	return nil
}

func injectMethod(rv reflect.Value, pt InjectionPoint, r Resolver) error {
	m := rv.MethodByName(pt.Member)
	if !m.IsValid() {
		return &InjectMemberError{Target: rv.Type(), Member: pt.Member, Err: ErrNotInjectable}
	}

	args := make([]reflect.Value, len(pt.Params))
	for i, prm := range pt.Params {
		val, ok, err := resolveArg(r, prm.Type, prm.Name, prm.Nullable)
		if err != nil {
			return &InjectMemberError{Target: rv.Type(), Member: pt.Member, Err: err}
		}
		if !ok {
			val = reflect.Zero(prm.Type)
		}
		args[i] = val
	}

	out := m.Call(args)
	if n := len(out); n > 0 {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return &InjectMemberError{Target: rv.Type(), Member: pt.Member, Err: err}
		}
	}
	return nil
}

// resolveArg resolves one dependency. ok is false when a nullable
// dependency is absent.
func resolveArg(r Resolver, t reflect.Type, name string, nullable bool) (reflect.Value, bool, error) {
	var (
		v   any
		err error
	)
	if name != "" {
		v, err = r.ResolveNamedAs(name, t)
	} else {
		v, err = r.Resolve(t)
	}
	if err != nil {
		// Only a missing binding for this very point is optional; failures
		// deeper in the graph still propagate.
		if nullable && missingPoint(err, t) {
			return reflect.Value{}, false, nil
		}
		return reflect.Value{}, false, err
	}
	if v == nil {
		return reflect.Zero(t), true, nil
	}

	val := reflect.ValueOf(v)
	if !val.Type().AssignableTo(t) {
		return reflect.Value{}, false, &InvalidCastError{Name: name, Exposed: t, Produced: val.Type()}
	}
	return val, true, nil
}

// missingPoint reports whether err means nothing could supply t itself: no
// binding, or createIfNotFound refusing to fabricate t.
func missingPoint(err error, t reflect.Type) bool {
	switch e := err.(type) {
	case *ServiceNotFoundError:
		return true
	case *UnsupportedConstructionError:
		return e.Type == t
	}
	return false
}
