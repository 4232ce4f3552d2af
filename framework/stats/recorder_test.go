package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/container"
)

type shell struct{}

type clock struct{}

func TestRecorder_CountsContainerEvents(t *testing.T) {
	r := NewRecorder()
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	b := container.NewBuilder()
	b.OnInstanceCreated(r.Observe)
	require.NoError(t, b.Register(
		container.Singleton[*clock]().Named("clock"),
		container.Transient[*shell](),
		container.Static(&struct{ N int }{}),
	))
	c, err := b.Build()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := container.Resolve[*shell](c)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(4), r.Count(CreatedCounter))
	assert.Equal(t, int64(1), r.Count(LifetimePrefix+"singleton"))
	assert.Equal(t, int64(3), r.Count(LifetimePrefix+"transient"))
	assert.Zero(t, r.Count(LifetimePrefix+"static"))

	bindings := r.Bindings()
	assert.Equal(t, int64(1), bindings["clock"])
	assert.Equal(t, int64(3), bindings["*stats.shell"])
	assert.Equal(t, int64(1700000000), r.Snapshot()[LastCreatedTime])
}

func TestRecorder_Attach(t *testing.T) {
	r := NewRecorder()
	b := container.NewBuilder()
	require.NoError(t, b.Register(container.Transient[*shell]()))
	c, err := b.Build()
	require.NoError(t, err)

	r.Attach(c)
	_, err = container.Resolve[*shell](c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Count(CreatedCounter))
}

func TestRecorder_Render(t *testing.T) {
	r := NewRecorder()
	r.Observe(container.InstanceCreatedEvent{Lifetime: container.LifetimeTransient, Name: "bullet"})

	for _, pretty := range []bool{false, true} {
		var got map[string]int64
		require.NoError(t, json.Unmarshal(r.Render(pretty), &got))
		assert.Equal(t, int64(1), got[BindingPrefix+"bullet"])
	}
	assert.Zero(t, NewRecorder().Count("missing"))
}
