package app

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/providers"
	"github.com/km-arc/go-ioc/framework/routing"
	"github.com/km-arc/go-ioc/framework/stats"
)

// Application is the top-level application. It embeds the built Container
// so user code can call app.Resolve(...) directly.
type Application struct {
	*container.Container
	Config *config.Config
	Log    *logrus.Logger
}

// New builds and boots the application: framework modules first (config,
// logging, stats, routing), then the given user modules.
func New(cfg *config.Config, modules ...container.Module) (*Application, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	log := logging.New(cfg.Log)
	return NewWithLogger(cfg, log, modules...)
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(cfg *config.Config, log *logrus.Logger, modules ...container.Module) (*Application, error) {
	b := container.NewBuilder(
		container.WithLogger(log),
		container.WithCreateIfNotFound(cfg.Container.CreateIfNotFound),
		container.WithResolveAllTransients(cfg.Container.ResolveAllTransients),
	)

	core := []container.Module{
		&providers.ConfigModule{Config: cfg},
		&providers.LoggingModule{Logger: log},
		&providers.StatsModule{},
		&providers.RoutingModule{},
	}
	if err := b.Install(append(core, modules...)...); err != nil {
		return nil, err
	}

	c, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, "app: building container")
	}
	if err := c.Boot(); err != nil {
		return nil, errors.Wrap(err, "app: booting modules")
	}

	return &Application{Container: c, Config: cfg, Log: log}, nil
}

// Router resolves the HTTP router.
func (a *Application) Router() (*routing.Router, error) {
	return container.Resolve[*routing.Router](a.Container)
}

// Stats resolves the creation recorder.
func (a *Application) Stats() (*stats.Recorder, error) {
	return container.Resolve[*stats.Recorder](a.Container)
}

// Run serves the router on APP_PORT until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	router, err := a.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.WithFields(logrus.Fields{
			"app":  a.Config.App.Name,
			"env":  a.Config.App.Env,
			"addr": srv.Addr,
		}).Info("serving container inspector")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "app: server")
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}
