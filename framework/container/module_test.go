package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/container"
)

// ── stub modules ─────────────────────────────────────────────────────────────

type eagerModule struct {
	container.BaseModule
	registerCalls int
	bootCalls     int
}

func (m *eagerModule) Register(b *container.Builder) error {
	m.registerCalls++
	return b.Register(container.Singleton[*Clock]())
}

func (m *eagerModule) Boot(c *container.Container) error {
	m.bootCalls++
	_, err := container.Resolve[*Clock](c)
	return err
}

type reportModule struct {
	container.BaseModule
}

func (m *reportModule) Register(b *container.Builder) error {
	return b.Register(
		container.Singleton[*Level](),
		container.Singleton[*Audio]().Named("alpha"),
	)
}

type failingModule struct {
	container.BaseModule
}

var errModule = errors.New("module failed")

func (m *failingModule) Register(*container.Builder) error { return errModule }

type failingBooter struct {
	container.BaseModule
}

func (m *failingBooter) Register(*container.Builder) error { return nil }
func (m *failingBooter) Boot(*container.Container) error   { return errModule }

func install(t *testing.T, modules ...container.Module) *container.Container {
	t.Helper()
	b := container.NewBuilder()
	require.NoError(t, b.Install(modules...))
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

// ── Install / Boot ───────────────────────────────────────────────────────────

func TestModule_RegisterCalledOnInstall(t *testing.T) {
	m := &eagerModule{}
	b := container.NewBuilder()
	require.NoError(t, b.Install(m))
	assert.Equal(t, 1, m.registerCalls)
}

func TestModule_InstalledTwiceRegistersOnce(t *testing.T) {
	m := &eagerModule{}
	c := install(t, m, m)

	assert.Equal(t, 1, m.registerCalls)
	assert.Len(t, c.Modules(), 1)
}

func TestModule_BootCalledOnlyOnBoot(t *testing.T) {
	m := &eagerModule{}
	c := install(t, m)

	assert.Zero(t, m.bootCalls)
	assert.False(t, c.Booted())

	require.NoError(t, c.Boot())
	assert.Equal(t, 1, m.bootCalls)
	assert.True(t, c.Booted())

	require.NoError(t, c.Boot())
	assert.Equal(t, 1, m.bootCalls, "Boot runs modules once")
}

func TestModule_RegisterError(t *testing.T) {
	b := container.NewBuilder()
	err := b.Install(&failingModule{})
	assert.ErrorIs(t, err, errModule)
}

func TestModule_BootError(t *testing.T) {
	c := install(t, &failingBooter{})
	assert.ErrorIs(t, c.Boot(), errModule)
}

func TestModule_MultipleBindings(t *testing.T) {
	c := install(t, &reportModule{})

	assert.True(t, c.Contains(container.TypeOf[*Level]()))
	assert.True(t, c.ContainsNamed("alpha"))
}

// ── Deferred ─────────────────────────────────────────────────────────────────

func TestDeferred_SingletonsAreLazy(t *testing.T) {
	c := install(t, container.Deferred(&reportModule{}))

	p, err := c.GetProvider(container.TypeOf[*Level]())
	require.NoError(t, err)
	assert.True(t, p.IsLazy())
	assert.False(t, p.IsInstanceCreated())

	named, err := c.GetProviderNamed("alpha")
	require.NoError(t, err)
	assert.False(t, named.IsInstanceCreated())

	container.MustResolve[*Level](c)
	assert.True(t, p.IsInstanceCreated())
	assert.True(t, c.ContainsNamed(container.LazyPrefix+"alpha"))
}

func TestDeferred_BootForwards(t *testing.T) {
	m := &eagerModule{}
	c := install(t, container.Deferred(m))

	require.NoError(t, c.Boot())
	assert.Equal(t, 1, m.bootCalls)
}

func TestDeferred_DoesNotLeakIntoNextModule(t *testing.T) {
	c := install(t, container.Deferred(&reportModule{}), &eagerModule{})

	p, err := c.GetProvider(container.TypeOf[*Clock]())
	require.NoError(t, err)
	assert.False(t, p.IsLazy())
	assert.True(t, p.IsInstanceCreated())
}

// ── ScanConfiguration ────────────────────────────────────────────────────────

type Difficulty struct{ Level int }

type Scoreboard struct {
	clock *Clock
	title string
}

type GameConfig struct {
	Difficulty *Difficulty `provide:""`
	Title      string      `provide:"title"`
	Ignored    int
}

func (g *GameConfig) ProvideScoreboard(clock *Clock) *Scoreboard {
	return &Scoreboard{clock: clock, title: g.Title}
}

func (g *GameConfig) ProvideAudio() (*Audio, error) {
	return &Audio{Volume: g.Difficulty.Level}, nil
}

func TestScanConfiguration(t *testing.T) {
	cfg := &GameConfig{Difficulty: &Difficulty{Level: 3}, Title: "Asteroids"}

	b := container.NewBuilder()
	require.NoError(t, b.Register(container.Singleton[*Clock]()))
	require.NoError(t, b.ScanConfiguration(cfg))
	c, err := b.Build()
	require.NoError(t, err)

	assert.Same(t, cfg.Difficulty, container.MustResolve[*Difficulty](c))

	title, err := container.ResolveNamed[string](c, "title")
	require.NoError(t, err)
	assert.Equal(t, "Asteroids", title)

	board, err := c.GetProvider(container.TypeOf[*Scoreboard]())
	require.NoError(t, err)
	assert.True(t, board.IsInstanceCreated(), "Provide* singletons are eager")

	sb := container.MustResolve[*Scoreboard](c)
	assert.Same(t, container.MustResolve[*Clock](c), sb.clock)
	assert.Equal(t, "Asteroids", sb.title)
	assert.Equal(t, 3, container.MustResolve[*Audio](c).Volume)
}

type badConfig struct {
	Audio *Audio `provide:""`
}

type badProvider struct{}

func (badProvider) ProvideNothing() {}

func TestScanConfiguration_Errors(t *testing.T) {
	b := container.NewBuilder()

	assert.ErrorIs(t, b.ScanConfiguration(nil), container.ErrNilInstance)
	assert.ErrorIs(t, b.ScanConfiguration(&badConfig{}), container.ErrNilInstance)
	assert.Error(t, b.ScanConfiguration(badProvider{}))
}
