package game

import (
	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-ioc/framework/container"
)

// Module registers the game services.
//
// Bound:
//   - *Settings (static) and "game.title" → string
//   - *Clock, *InputManager, *GameLoop, *ObjectPool (eager singletons)
//   - *LevelGenerator (lazy singleton)
//   - *Bullet (transient, with its factory)
type Module struct {
	container.BaseModule
	Settings *Settings
}

// NewModule returns a Module with DefaultSettings when s is nil.
func NewModule(s *Settings) *Module {
	if s == nil {
		s = DefaultSettings()
	}
	return &Module{Settings: s}
}

type assets struct {
	Settings *Settings `provide:""`
	Title    string    `provide:"game.title"`
}

func (a *assets) ProvideClock() *Clock { return &Clock{} }

func (m *Module) Register(b *container.Builder) error {
	if m.Settings == nil {
		m.Settings = DefaultSettings()
	}
	if err := m.Settings.validate(); err != nil {
		return err
	}
	if err := b.ScanConfiguration(&assets{Settings: m.Settings, Title: m.Settings.Title}); err != nil {
		return err
	}
	return b.Register(
		container.Transient[*Bullet](),
		container.Singleton[*ObjectPool](),
		container.Singleton[*LevelGenerator]().Lazy(),
		container.Singleton[*InputManager](),
		container.Singleton[*GameLoop](),
	)
}

// Boot logs the wiring once the container is up.
func (m *Module) Boot(c *container.Container) error {
	loop, err := container.Resolve[*GameLoop](c)
	if err != nil {
		return err
	}
	loop.Log.WithFields(logrus.Fields{
		"title": m.Settings.Title,
		"board": m.Settings.Width * m.Settings.Height,
		"pool":  loop.Pool.Created(),
	}).Info("game: ready")
	return nil
}

// Play feeds keys into the loop, one per frame, and returns every frame.
func Play(c *container.Container, keys ...string) ([]Frame, error) {
	loop, err := container.Resolve[*GameLoop](c)
	if err != nil {
		return nil, err
	}
	frames := make([]Frame, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			loop.Input.Press(k)
		}
		f, err := loop.Step()
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}
