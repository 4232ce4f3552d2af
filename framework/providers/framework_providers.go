package providers

import (
	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/routing"
	"github.com/km-arc/go-ioc/framework/stats"
)

// ── ConfigModule ─────────────────────────────────────────────────────────────

// ConfigModule binds the loaded configuration.
//
// Bound:
//   - *config.Config
//   - "app.key" → string (APP_KEY, may be empty)
type ConfigModule struct {
	container.BaseModule
	Config *config.Config
}

func (m *ConfigModule) Register(b *container.Builder) error {
	return b.Register(
		container.Static(m.Config),
		container.Static(m.Config.App.Key).Named("app.key"),
	)
}

// ── LoggingModule ────────────────────────────────────────────────────────────

// LoggingModule binds the application logger.
//
// Bound:
//   - *logrus.Logger
//   - logrus.FieldLogger (same instance)
type LoggingModule struct {
	container.BaseModule
	Logger *logrus.Logger
}

func (m *LoggingModule) Register(b *container.Builder) error {
	return b.Register(
		container.Static(m.Logger),
		container.Static[logrus.FieldLogger](m.Logger),
	)
}

// ── StatsModule ──────────────────────────────────────────────────────────────

// StatsModule binds a *stats.Recorder subscribed before Build, so eager
// singletons are counted too.
type StatsModule struct {
	container.BaseModule
	Recorder *stats.Recorder
}

func (m *StatsModule) Register(b *container.Builder) error {
	if m.Recorder == nil {
		m.Recorder = stats.NewRecorder()
	}
	b.OnInstanceCreated(m.Recorder.Observe)
	return b.Register(container.Static(m.Recorder))
}

// ── RoutingModule ────────────────────────────────────────────────────────────

// RoutingModule binds the HTTP router as a lazy singleton and mounts the
// container inspector on it when booted.
//
// Bound:
//   - *routing.Router (lazy)
type RoutingModule struct {
	container.BaseModule
}

func (m *RoutingModule) Register(b *container.Builder) error {
	return b.Register(
		container.Singleton(func(r container.Resolver) (*routing.Router, error) {
			log, err := container.Resolve[logrus.FieldLogger](r)
			if err != nil {
				return nil, err
			}
			return routing.New(log), nil
		}).Lazy(),
	)
}

func (m *RoutingModule) Boot(c *container.Container) error {
	router, err := container.Resolve[*routing.Router](c)
	if err != nil {
		return err
	}
	rec, _ := container.TryResolve[*stats.Recorder](c)
	key, err := container.ResolveNamedOr(c, "app.key", func() string { return "" })
	if err != nil {
		return err
	}
	gohttp.NewInspector(c, rec, key).Routes(router)
	return nil
}
