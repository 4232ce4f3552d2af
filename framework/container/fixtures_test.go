package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/container"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

type Clock struct{ Ticks int }

type Bullet struct{ Speed int }

type Audio struct{ Volume int }

type Level struct{ Seed int }

type Engine struct {
	Clock *Clock `inject:""`

	initCalls int
}

func (e *Engine) Initialize() error {
	if e.Clock == nil {
		return errors.New("engine: clock not injected before Initialize")
	}
	e.initCalls++
	return nil
}

type Greeter interface{ Greet() string }

type englishGreeter struct{}

func (*englishGreeter) Greet() string { return "hello" }

type frenchGreeter struct{}

func (*frenchGreeter) Greet() string { return "bonjour" }

type germanGreeter struct{}

func (*germanGreeter) Greet() string { return "hallo" }

type Settings struct {
	Difficulty int
	initCalls  int
}

func (s *Settings) Initialize() error {
	s.initCalls++
	return nil
}

// singleton cycle
type Left struct {
	Right *Right `inject:""`
}

type Right struct {
	Left *Left `inject:""`
}

type Node struct {
	Self *Node `inject:""`
}

// transient cycle
type Ping struct {
	Pong *Pong `inject:""`
}

type Pong struct {
	Ping *Ping `inject:""`
}

type Shot struct {
	Bullet *Bullet `inject:""`
}

func build(t *testing.T, bindings ...*container.Binding) *container.Container {
	t.Helper()
	return buildWith(t, nil, bindings...)
}

func buildWith(t *testing.T, opts []container.Option, bindings ...*container.Binding) *container.Container {
	t.Helper()
	b := container.NewBuilder(opts...)
	require.NoError(t, b.Register(bindings...))
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

func buildErr(t *testing.T, bindings ...*container.Binding) error {
	t.Helper()
	b := container.NewBuilder()
	require.NoError(t, b.Register(bindings...))
	c, err := b.Build()
	require.Error(t, err)
	require.Nil(t, c)
	return err
}
