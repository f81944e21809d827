package bootstrap

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/pspkit/config"
	"github.com/kbukum/pspkit/logger"
	"github.com/kbukum/pspkit/observability"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

type staticChecker observability.Health

func (c staticChecker) CheckHealth(context.Context) observability.Health {
	return observability.Health(c)
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("test", "1.0"), WithLogger(logger.NewDefault("test")))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	cfg := newTestConfig("test-svc", "1.0.0")
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	if app.Summary == nil {
		t.Error("expected non-nil summary")
	}
	if app.Cfg.Name != "test-svc" {
		t.Errorf("expected cfg.Name 'test-svc', got %q", app.Cfg.Name)
	}
	if app.gracefulTimeout != defaultGracefulTimeout {
		t.Errorf("expected default 15s, got %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	_, err := NewApp(newTestConfig("", "1.0"))
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
	if !strings.Contains(err.Error(), "config validation") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewAppWithOptions(t *testing.T) {
	l := logger.NewDefault("custom")
	app, err := NewApp(newTestConfig("test", "1.0"), WithLogger(l), WithGracefulTimeout(5*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if app.Logger != l {
		t.Error("expected custom logger")
	}
	if app.gracefulTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", app.gracefulTimeout)
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name     string
		checkers []observability.HealthChecker
		wantErr  bool
	}{
		{"empty", nil, false},
		{"healthy", []observability.HealthChecker{
			staticChecker{Name: "psp.sandbox", Status: observability.HealthStatusUp},
		}, false},
		{"degraded", []observability.HealthChecker{
			staticChecker{Name: "psp.sandbox", Status: observability.HealthStatusDegraded},
		}, false},
		{"down", []observability.HealthChecker{
			staticChecker{Name: "psp.sandbox", Status: observability.HealthStatusUp},
			staticChecker{Name: "psp.stripe", Status: observability.HealthStatusDown, Message: "unreachable"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.AddHealthCheck(tt.checkers...)
			err := app.ReadyCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadyCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "psp.stripe=down(unreachable)") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app := newTestApp(t)

	var order []string
	record := func(name string) Hook {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		a.OnStart(record("start"))
		a.OnStop(record("stop-registered-in-configure"))
		return nil
	})
	app.OnReady(record("ready"))
	app.OnStop(record("stop-registered-before-run"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := []string{"configure", "start", "ready", "task", "stop-registered-in-configure", "stop-registered-before-run"}
	if !slices.Equal(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestRunTaskErrors(t *testing.T) {
	boom := fmt.Errorf("boom")
	tests := []struct {
		name    string
		setup   func(*App[*testConfig])
		task    func(context.Context) error
		wantErr string
		ranTask bool
	}{
		{
			name:    "task error",
			task:    func(context.Context) error { return boom },
			wantErr: "boom",
			ranTask: true,
		},
		{
			name: "configure error",
			setup: func(a *App[*testConfig]) {
				a.OnConfigure(func(context.Context, *App[*testConfig]) error { return boom })
			},
			wantErr: "configure: boom",
		},
		{
			name:    "start hook error",
			setup:   func(a *App[*testConfig]) { a.OnStart(func(context.Context) error { return boom }) },
			wantErr: "start hook 1: boom",
		},
		{
			name:    "ready hook error",
			setup:   func(a *App[*testConfig]) { a.OnReady(func(context.Context) error { return boom }) },
			wantErr: "ready hook 1: boom",
		},
		{
			name:    "stop hook error",
			setup:   func(a *App[*testConfig]) { a.OnStop(func(context.Context) error { return boom }) },
			wantErr: "boom",
			ranTask: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			if tt.setup != nil {
				tt.setup(app)
			}
			ran := false
			err := app.RunTask(context.Background(), func(ctx context.Context) error {
				ran = true
				if tt.task != nil {
					return tt.task(ctx)
				}
				return nil
			})
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %v", tt.wantErr, err)
			}
			if ran != tt.ranTask {
				t.Errorf("task ran = %v, want %v", ran, tt.ranTask)
			}
		})
	}
}

func TestStopRunsEveryHook(t *testing.T) {
	app := newTestApp(t)
	calls := 0
	app.OnStop(
		func(context.Context) error { calls++; return nil },
		func(context.Context) error { calls++; return fmt.Errorf("late") },
	)
	if err := app.Shutdown(context.Background()); err == nil || err.Error() != "late" {
		t.Errorf("expected 'late', got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected both hooks to run, got %d", calls)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if err == nil {
		t.Error("expected error from canceled task")
	}
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	stopped := false
	app.OnStop(func(context.Context) error {
		stopped = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !stopped {
		t.Error("expected stop hooks to run")
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("expected nil signal, got %v", sig)
	}
}
