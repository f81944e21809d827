package bootstrap

import (
	"context"
	"fmt"
)

// Hook is one step of startup or shutdown, such as starting the HTTP server
// or closing the payment providers.
type Hook func(ctx context.Context) error

// OnStart adds hooks that run after configuration and before the ready check.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnReady adds hooks that run after the ready check, before the startup
// summary is logged.
func (a *App[C]) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop adds shutdown hooks. They run in reverse order of registration.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

func runHooks(ctx context.Context, phase string, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s hook %d: %w", phase, i+1, err)
		}
	}
	return nil
}
