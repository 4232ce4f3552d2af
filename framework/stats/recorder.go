// Package stats counts container activity on top of go-metrics.
//
// A Recorder subscribes to container.InstanceCreatedEvent and keeps one
// counter per lifetime and one per binding, named finagle style:
//
//	container/created
//	container/created/singleton
//	container/binding/*game.Bullet
//	container/binding/level
package stats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/km-arc/go-ioc/framework/container"
)

const (
	CreatedCounter  = "container/created"
	LifetimePrefix  = "container/created/"
	BindingPrefix   = "container/binding/"
	LastCreatedTime = "container/last_created_unix"
)

// Recorder is safe for concurrent use; go-metrics instruments are.
type Recorder struct {
	registry metrics.Registry
	now      func() time.Time
}

// NewRecorder returns a Recorder with its own registry.
func NewRecorder() *Recorder {
	return &Recorder{registry: metrics.NewRegistry(), now: time.Now}
}

// Attach subscribes the recorder to c.
func (r *Recorder) Attach(c *container.Container) {
	c.OnInstanceCreated(r.Observe)
}

// Observe records one instance creation.
func (r *Recorder) Observe(e container.InstanceCreatedEvent) {
	r.counter(CreatedCounter).Inc(1)
	r.counter(LifetimePrefix + e.Lifetime.String()).Inc(1)

	key := e.Name
	if key == "" && e.Type != nil {
		key = e.Type.String()
	}
	r.counter(BindingPrefix + key).Inc(1)

	metrics.GetOrRegisterGauge(LastCreatedTime, r.registry).Update(r.now().Unix())
}

// Count returns the value of the named counter, zero if it was never bumped.
func (r *Recorder) Count(name string) int64 {
	if c, ok := r.registry.Get(name).(metrics.Counter); ok {
		return c.Count()
	}
	return 0
}

// Snapshot returns every counter and gauge by name.
func (r *Recorder) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	r.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			out[name] = m.Count()
		case metrics.Gauge:
			out[name] = m.Value()
		}
	})
	return out
}

// Bindings returns the per-binding counters keyed by binding.
func (r *Recorder) Bindings() map[string]int64 {
	out := make(map[string]int64)
	for name, v := range r.Snapshot() {
		if strings.HasPrefix(name, BindingPrefix) {
			out[strings.TrimPrefix(name, BindingPrefix)] = v
		}
	}
	return out
}

// Render marshals Snapshot as JSON.
func (r *Recorder) Render(pretty bool) []byte {
	var (
		bytes []byte
		err   error
	)
	if pretty {
		bytes, err = json.MarshalIndent(r.Snapshot(), "", "  ")
	} else {
		bytes, err = json.Marshal(r.Snapshot())
	}
	if err != nil {
		return []byte("{}")
	}
	return bytes
}

func (r *Recorder) counter(name string) metrics.Counter {
	return metrics.GetOrRegisterCounter(name, r.registry)
}
