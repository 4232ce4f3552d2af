// Package game is a small asteroids-style simulation wired entirely through
// the container. It exists to exercise every lifetime end to end: a static
// Settings, eager singletons with a mutual dependency, a lazy level
// generator and a pool of transient bullets.
package game

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-ioc/framework/container"
)

// Settings is bound as a static instance.
type Settings struct {
	Title       string
	Width       int
	Height      int
	BulletSpeed int
	PoolSize    int
	Seed        int64
}

// DefaultSettings returns the settings the demo ships with.
func DefaultSettings() *Settings {
	return &Settings{
		Title:       "Asteroids",
		Width:       80,
		Height:      24,
		BulletSpeed: 3,
		PoolSize:    4,
		Seed:        1,
	}
}

func (s *Settings) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.Errorf("game: invalid board %dx%d", s.Width, s.Height)
	}
	if s.PoolSize < 0 {
		return errors.Errorf("game: negative pool size %d", s.PoolSize)
	}
	return nil
}

// ── Clock ────────────────────────────────────────────────────────────────────

type Clock struct {
	mu    sync.Mutex
	ticks int
}

func (c *Clock) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.ticks
}

func (c *Clock) Ticks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// ── Bullets ──────────────────────────────────────────────────────────────────

// Bullet is transient: every Create hands out a fresh one.
type Bullet struct {
	Settings *Settings `inject:""`

	X, Y  int
	Speed int
}

func (b *Bullet) Initialize() error {
	b.Speed = b.Settings.BulletSpeed
	return nil
}

// Move advances the bullet and reports whether it is still on the board.
func (b *Bullet) Move() bool {
	b.Y -= b.Speed
	return b.Y >= 0
}

// ObjectPool recycles bullets and asks the factory for new ones when empty.
type ObjectPool struct {
	Bullets  *container.TransientFactory[*Bullet] `inject:""`
	Settings *Settings                            `inject:""`

	mu      sync.Mutex
	free    []*Bullet
	created int
}

// Initialize fills the pool up front.
func (p *ObjectPool) Initialize() error {
	for i := 0; i < p.Settings.PoolSize; i++ {
		b, err := p.Bullets.Create()
		if err != nil {
			return err
		}
		p.free = append(p.free, b)
		p.created++
	}
	return nil
}

func (p *ObjectPool) Acquire() (*Bullet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free = p.free[:n-1]
		return b, nil
	}
	b, err := p.Bullets.Create()
	if err != nil {
		return nil, err
	}
	p.created++
	return b, nil
}

func (p *ObjectPool) Release(b *Bullet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, b)
}

// Created is the number of bullets the pool ever asked the factory for.
func (p *ObjectPool) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// ── Level ────────────────────────────────────────────────────────────────────

// Rock is one asteroid on the board.
type Rock struct {
	X, Y int
}

// LevelGenerator is lazy: building the asteroid field is deferred until the
// first frame asks for it.
type LevelGenerator struct {
	Settings *Settings `inject:""`

	Rocks []Rock
}

func (g *LevelGenerator) Initialize() error {
	rnd := rand.New(rand.NewSource(g.Settings.Seed))
	n := g.Settings.Width / 10
	g.Rocks = make([]Rock, n)
	for i := range g.Rocks {
		g.Rocks[i] = Rock{X: rnd.Intn(g.Settings.Width), Y: rnd.Intn(max(1, g.Settings.Height/2))}
	}
	return nil
}

// ── Loop ─────────────────────────────────────────────────────────────────────

// InputManager and GameLoop depend on each other. Both are singletons, so
// the container hands each the other's instance.
type InputManager struct {
	Loop *GameLoop `inject:""`

	mu      sync.Mutex
	pending []string
}

// Press queues a key for the next frame.
func (in *InputManager) Press(key string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.pending = append(in.pending, key)
}

func (in *InputManager) drain() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	keys := in.pending
	in.pending = nil
	return keys
}

// GameLoop drives the simulation one frame at a time.
type GameLoop struct {
	Clock    *Clock                           `inject:""`
	Input    *InputManager                    `inject:""`
	Pool     *ObjectPool                      `inject:""`
	Levels   *container.Lazy[*LevelGenerator] `inject:""`
	Settings *Settings                        `inject:""`
	Log      logrus.FieldLogger               `inject:",optional"`

	mu     sync.Mutex
	flying []*Bullet
	x      int
}

func (g *GameLoop) Initialize() error {
	g.x = g.Settings.Width / 2
	if g.Log == nil {
		g.Log = logrus.New()
	}
	return nil
}

// Frame is the state after one Step.
type Frame struct {
	Tick    int
	ShipX   int
	Bullets int
	Rocks   int
}

func (f Frame) String() string {
	return fmt.Sprintf("tick=%d ship=%d bullets=%d rocks=%d", f.Tick, f.ShipX, f.Bullets, f.Rocks)
}

// Step consumes pending input, moves every bullet and returns the new frame.
func (g *GameLoop) Step() (Frame, error) {
	level, err := g.Levels.Get()
	if err != nil {
		return Frame{}, errors.Wrap(err, "game: generating level")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, key := range g.Input.drain() {
		switch key {
		case "left":
			if g.x > 0 {
				g.x--
			}
		case "right":
			if g.x < g.Settings.Width-1 {
				g.x++
			}
		case "fire":
			b, err := g.Pool.Acquire()
			if err != nil {
				return Frame{}, errors.Wrap(err, "game: firing")
			}
			b.X, b.Y = g.x, g.Settings.Height-1
			g.flying = append(g.flying, b)
		}
	}

	alive := g.flying[:0]
	for _, b := range g.flying {
		if b.Move() {
			alive = append(alive, b)
		} else {
			g.Pool.Release(b)
		}
	}
	g.flying = alive

	f := Frame{Tick: g.Clock.Tick(), ShipX: g.x, Bullets: len(g.flying), Rocks: len(level.Rocks)}
	g.Log.WithField("frame", f.Tick).Debug(f.String())
	return f, nil
}
