package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/pspkit/logger"
	"github.com/kbukum/pspkit/observability"
)

// App runs a service through configure, start, ready and stop phases. C is
// the service's config type; pspd uses *Config.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    srv := server.New(a.Cfg.Server, a.Logger)
//	    a.OnStart(srv.Start)
//	    a.OnStop(srv.Stop)
//	    return nil
//	})
//	err = app.Run(ctx)
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger
	Summary *logger.StartupSummary

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error
	checkers        []observability.HealthChecker

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp applies the config defaults, validates the config and sets up the
// logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	s := settings{gracefulTimeout: defaultGracefulTimeout}
	for _, opt := range opts {
		opt(&s)
	}

	svc := cfg.GetServiceConfig()
	if s.logger == nil {
		logger.Init(svc.Logging)
		s.logger = logger.GetGlobalLogger()
	}

	return &App[C]{
		Name:            svc.Name,
		Version:         svc.Version,
		Cfg:             cfg,
		Logger:          s.logger,
		Summary:         logger.NewStartupSummary(),
		gracefulTimeout: s.gracefulTimeout,
	}, nil
}

// OnConfigure adds a callback for the configure phase, where the service
// builds its providers and server and registers its hooks.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// AddHealthCheck adds checkers to the ready check.
func (a *App[C]) AddHealthCheck(checkers ...observability.HealthChecker) {
	a.checkers = append(a.checkers, checkers...)
}

// ReadyCheck fails when a checker reports down. Degraded passes.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var down []string
	for _, c := range a.checkers {
		h := c.CheckHealth(ctx)
		if h.Status != observability.HealthStatusDown {
			continue
		}
		entry := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			entry += "(" + h.Message + ")"
		}
		down = append(down, entry)
	}
	if len(down) > 0 {
		return fmt.Errorf("unhealthy components: %s", strings.Join(down, ", "))
	}
	return nil
}

// Run starts the service and blocks until SIGINT, SIGTERM or ctx is done,
// then runs the stop hooks.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		return err
	}
	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)
	return a.stop()
}

// RunTask starts the service, runs task and stops. task's context is
// canceled on SIGINT or SIGTERM. The task error wins over a stop error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.start(ctx); err != nil {
		return err
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	taskErr := task(taskCtx)

	if err := a.stop(); taskErr == nil {
		return err
	}
	return taskErr
}

func (a *App[C]) start(ctx context.Context) error {
	a.Logger.Info("Starting application", logger.Fields(
		logger.FieldService, a.Name,
		"version", a.Version,
	))

	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return fmt.Errorf("configure: %w", err)
		}
	}
	if err := runHooks(ctx, "start", a.onStart); err != nil {
		return err
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := runHooks(ctx, "ready", a.onReady); err != nil {
		return err
	}

	a.Summary.Log(a.Logger)
	return nil
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx is done. It returns the
// signal, or nil when ctx ended the wait.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown runs the stop hooks. Use it when the caller owns the lifecycle.
func (a *App[C]) Shutdown(context.Context) error {
	return a.stop()
}

// stop runs every stop hook, newest first, within the graceful timeout and
// returns the first error.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var first error
	for _, h := range slices.Backward(a.onStop) {
		if err := h(ctx); err != nil {
			a.Logger.Error("Stop hook failed", logger.Fields(logger.FieldError, err.Error()))
			if first == nil {
				first = err
			}
		}
	}

	a.Logger.Info("Application shutdown complete")
	return first
}
