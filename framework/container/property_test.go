package container_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/km-arc/go-ioc/framework/container"
)

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	return gopter.NewProperties(parameters)
}

func TestProperty_TransientsAreDistinct(t *testing.T) {
	properties := newProperties()
	properties.Property("n resolves of a transient yield n distinct instances", prop.ForAll(
		func(n int) bool {
			b := container.NewBuilder()
			if err := b.Register(container.Transient[*Bullet](), container.Transient[*Shot]()); err != nil {
				return false
			}
			c, err := b.Build()
			if err != nil {
				return false
			}
			seen := make(map[*Bullet]bool)
			for i := 0; i < n; i++ {
				s, err := container.Resolve[*Shot](c)
				if err != nil || seen[s.Bullet] {
					return false
				}
				seen[s.Bullet] = true
			}
			return len(seen) == n
		},
		gen.IntRange(1, 40),
	))
	properties.TestingRun(t)
}

func TestProperty_SingletonIdentity(t *testing.T) {
	properties := newProperties()
	properties.Property("every resolve of a singleton is the same instance", prop.ForAll(
		func(n int, lazy bool) bool {
			bd := container.Singleton[*Clock]()
			if lazy {
				bd.Lazy()
			}
			b := container.NewBuilder()
			if err := b.Register(bd, container.Transient[*Engine]()); err != nil {
				return false
			}
			c, err := b.Build()
			if err != nil {
				return false
			}
			first := container.MustResolve[*Clock](c)
			for i := 0; i < n; i++ {
				e, err := container.Resolve[*Engine](c)
				if err != nil || e.Clock != first {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.Bool(),
	))
	properties.TestingRun(t)
}

func TestProperty_NameCollisions(t *testing.T) {
	properties := newProperties()
	properties.Property("Build fails exactly when two bindings share a name", prop.ForAll(
		func(keys []int) bool {
			b := container.NewBuilder()
			unique := make(map[string]bool)
			for i, key := range keys {
				name := "level-" + strconv.Itoa(key)
				unique[name] = true
				if err := b.Register(container.Static(&Level{Seed: i}).Named(name)); err != nil {
					return false
				}
			}
			_, err := b.Build()

			var dup *container.DuplicateServiceError
			if len(unique) < len(keys) {
				return errors.As(err, &dup) && dup.ByName
			}
			return err == nil
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))
	properties.TestingRun(t)
}
