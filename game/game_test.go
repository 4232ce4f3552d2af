package game_test

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/game"
)

func newGame(t *testing.T, s *game.Settings) (*container.Container, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	b := container.NewBuilder()
	require.NoError(t, b.Register(container.Static[logrus.FieldLogger](log)))
	require.NoError(t, b.Install(game.NewModule(s)))
	c, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, c.Boot())
	return c, hook
}

func TestModule_Wiring(t *testing.T) {
	c, hook := newGame(t, nil)

	loop := container.MustResolve[*game.GameLoop](c)
	input := container.MustResolve[*game.InputManager](c)
	assert.Same(t, input, loop.Input)
	assert.Same(t, loop, input.Loop)
	assert.Same(t, container.MustResolve[*game.Clock](c), loop.Clock)

	title, err := container.ResolveNamed[string](c, "game.title")
	require.NoError(t, err)
	assert.Equal(t, "Asteroids", title)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "game: ready", hook.LastEntry().Message)
	assert.Equal(t, 4, hook.LastEntry().Data["pool"])
}

func TestModule_LevelIsLazy(t *testing.T) {
	c, _ := newGame(t, nil)

	loop := container.MustResolve[*game.GameLoop](c)
	assert.False(t, loop.Levels.IsCreated())

	_, err := game.Play(c, "")
	require.NoError(t, err)
	assert.True(t, loop.Levels.IsCreated())
	assert.Len(t, loop.Levels.MustGet().Rocks, 8)
}

func TestPlay_FireAndMove(t *testing.T) {
	c, _ := newGame(t, nil)

	frames, err := game.Play(c, "left", "fire", "right", "right", "")
	require.NoError(t, err)
	require.Len(t, frames, 5)

	assert.Equal(t, 39, frames[0].ShipX)
	assert.Equal(t, 1, frames[1].Bullets)
	assert.Equal(t, 41, frames[4].ShipX)
	assert.Equal(t, 5, frames[4].Tick)
}

func TestPlay_BulletsAreRecycled(t *testing.T) {
	c, _ := newGame(t, &game.Settings{Title: "t", Width: 10, Height: 4, BulletSpeed: 4, PoolSize: 1, Seed: 7})

	frames, err := game.Play(c, "fire", "fire", "fire")
	require.NoError(t, err)
	for _, f := range frames {
		assert.Zero(t, f.Bullets)
	}

	pool := container.MustResolve[*game.ObjectPool](c)
	assert.Equal(t, 1, pool.Created())
}

func TestPool_GrowsWhenEmpty(t *testing.T) {
	c, _ := newGame(t, &game.Settings{Title: "t", Width: 10, Height: 20, BulletSpeed: 1, PoolSize: 0, Seed: 1})

	pool := container.MustResolve[*game.ObjectPool](c)
	a, err := pool.Acquire()
	require.NoError(t, err)
	b, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 1, a.Speed)
	assert.Equal(t, 2, pool.Created())

	pool.Release(a)
	again, err := pool.Acquire()
	require.NoError(t, err)
	assert.Same(t, a, again)
}

func TestModule_InvalidSettings(t *testing.T) {
	b := container.NewBuilder()
	err := b.Install(game.NewModule(&game.Settings{Width: 0, Height: 10}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid board")
}

func TestGameLoop_DefaultsLogger(t *testing.T) {
	b := container.NewBuilder()
	require.NoError(t, b.Install(game.NewModule(nil)))
	c, err := b.Build()
	require.NoError(t, err)

	loop := container.MustResolve[*game.GameLoop](c)
	assert.NotNil(t, loop.Log)
}

func TestGameLoop_LevelFailure(t *testing.T) {
	boom := errors.New("boom")
	b := container.NewBuilder()
	require.NoError(t, b.Register(
		container.Static(game.DefaultSettings()),
		container.Singleton[*game.Clock](),
		container.Transient[*game.Bullet](),
		container.Singleton[*game.ObjectPool](),
		container.Singleton(func(container.Resolver) (*game.LevelGenerator, error) { return nil, boom }).Lazy(),
		container.Singleton[*game.InputManager](),
		container.Singleton[*game.GameLoop](),
	))
	c, err := b.Build()
	require.NoError(t, err)

	_, err = game.Play(c, "")
	assert.ErrorIs(t, err, boom)
}
