package container_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/container"
)

type Base struct {
	Clock *Clock `inject:""`
}

type Turret struct {
	Base
	Audio  *Audio `inject:"sfx,optional"`
	Ignore *Level
}

func (t *Turret) InjectLevel(l *Level) error { return nil }

// Neither qualifies: no parameters, and a non-error result.
func (t *Turret) InjectNothing() {}

func (t *Turret) InjectTwice(*Level) (int, error) { return 0, nil }

func (t *Turret) Fire() {}

func TestTagScanner_Points(t *testing.T) {
	s := container.NewTagScanner()

	points, err := s.Scan(reflect.TypeOf(&Turret{}))
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "Clock", points[0].Member)
	assert.Equal(t, []int{0, 0}, points[0].Index)
	assert.False(t, points[0].Nullable)

	assert.Equal(t, "Audio", points[1].Member)
	assert.Equal(t, "sfx", points[1].Name)
	assert.True(t, points[1].Nullable)

	assert.Equal(t, "InjectLevel", points[2].Member)
	assert.Equal(t, container.MethodMember, points[2].Kind)
	require.Len(t, points[2].Params, 1)
	assert.Equal(t, container.TypeOf[*Level](), points[2].Params[0].Type)
}

func TestTagScanner_ValueAndPointerAgree(t *testing.T) {
	s := container.NewTagScanner()

	byPtr, err := s.Scan(reflect.TypeOf(&Turret{}))
	require.NoError(t, err)
	byVal, err := s.Scan(reflect.TypeOf(Turret{}))
	require.NoError(t, err)
	assert.Equal(t, byPtr, byVal)
}

func TestTagScanner_NonStruct(t *testing.T) {
	s := container.NewTagScanner()

	points, err := s.Scan(container.TypeOf[int]())
	require.NoError(t, err)
	assert.Empty(t, points)

	points, err = s.Scan(nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}

type hidden struct {
	clock *Clock `inject:""`
}

func TestTagScanner_UnexportedTaggedField(t *testing.T) {
	_, err := container.NewTagScanner().Scan(reflect.TypeOf(&hidden{}))
	require.Error(t, err)

	b := container.NewBuilder()
	require.NoError(t, b.Register(container.Singleton[*hidden]()))
	_, err = b.Build()
	assert.Error(t, err)
}

func TestTagScanner_CustomTag(t *testing.T) {
	type wired struct {
		Clock *Clock `wire:""`
		Audio *Audio `inject:""`
	}
	s := &container.TagScanner{Tag: "wire"}

	points, err := s.Scan(reflect.TypeOf(&wired{}))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "Clock", points[0].Member)
}

type nopScanner struct{}

func (nopScanner) Scan(reflect.Type) ([]container.InjectionPoint, error) { return nil, nil }

func TestWithScanner(t *testing.T) {
	c := buildWith(t, []container.Option{container.WithScanner(nopScanner{})},
		container.Singleton[*Clock](),
		container.Transient[*Engine](),
	)

	// Initialize refuses an engine without a clock.
	_, err := container.Resolve[*Engine](c)
	assert.Error(t, err)
}
