package container

import (
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Scanner turns a type into the injection points the Injector populates.
// The container never inspects tags itself; replace the TagScanner to wire
// dependencies some other way.
type Scanner interface {
	Scan(t reflect.Type) ([]InjectionPoint, error)
}

// TagScanner reads injection points from struct tags and method names.
//
//	type GameLoop struct {
//	    Clock  *Clock               `inject:""`              // by type
//	    Input  Input                `inject:"input"`         // by name
//	    Audio  *Audio               `inject:",optional"`     // nullable
//	    Level  *container.Lazy[*Level] `inject:""`           // deferred
//	}
//
//	// Methods named Inject* on the pointer receiver are called once with
//	// every parameter resolved by type.
//	func (g *GameLoop) InjectPool(p *Pool) { g.pool = p }
type TagScanner struct {
	Tag          string
	MethodPrefix string

	cache sync.Map // reflect.Type → []InjectionPoint
}

// NewTagScanner returns a TagScanner using the `inject` tag and the
// "Inject" method prefix.
func NewTagScanner() *TagScanner {
	return &TagScanner{Tag: "inject", MethodPrefix: "Inject"}
}

// Scan implements Scanner. Types that are neither structs nor pointers to
// structs have no injection points.
func (s *TagScanner) Scan(t reflect.Type) ([]InjectionPoint, error) {
	if t == nil {
		return nil, nil
	}
	if cached, ok := s.cache.Load(t); ok {
		return cached.([]InjectionPoint), nil
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, nil
	}

	var points []InjectionPoint
	if err := s.scanFields(st, nil, &points); err != nil {
		return nil, err
	}
	s.scanMethods(reflect.PointerTo(st), &points)

	s.cache.Store(t, points)
	return points, nil
}

func (s *TagScanner) scanFields(st reflect.Type, parent []int, points *[]InjectionPoint) error {
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		index := append(append([]int(nil), parent...), i)

		tag, tagged := f.Tag.Lookup(s.Tag)
		if !tagged {
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				if err := s.scanFields(f.Type, index, points); err != nil {
					return err
				}
			}
			continue
		}
		if !f.IsExported() {
			return errors.Errorf("container: %s.%s is tagged %q but unexported", st, f.Name, s.Tag)
		}

		name, nullable := parseTag(tag)
		*points = append(*points, InjectionPoint{
			Member:   f.Name,
			Kind:     FieldMember,
			Index:    index,
			Type:     f.Type,
			Name:     name,
			Nullable: nullable,
		})
	}
	return nil
}

func (s *TagScanner) scanMethods(pt reflect.Type, points *[]InjectionPoint) {
	if s.MethodPrefix == "" {
		return
	}
	errType := TypeOf[error]()
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if !strings.HasPrefix(m.Name, s.MethodPrefix) || m.Type.NumIn() < 2 {
			continue
		}
		// Only func(...) and func(...) error qualify.
		if out := m.Type.NumOut(); out > 1 || (out == 1 && m.Type.Out(0) != errType) {
			continue
		}

		params := make([]Parameter, 0, m.Type.NumIn()-1)
		for j := 1; j < m.Type.NumIn(); j++ {
			params = append(params, Parameter{Type: m.Type.In(j)})
		}
		*points = append(*points, InjectionPoint{
			Member: m.Name,
			Kind:   MethodMember,
			Params: params,
		})
	}
}

// parseTag splits `name,optional`. "nullable" is accepted as a synonym.
func parseTag(tag string) (name string, nullable bool) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "optional", "nullable":
			nullable = true
		}
	}
	return name, nullable
}
