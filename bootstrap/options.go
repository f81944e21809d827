package bootstrap

import (
	"time"

	"github.com/kbukum/pspkit/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// Option customizes NewApp. Options do not depend on the config type.
type Option func(*settings)

type settings struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
}

// WithLogger uses l instead of initializing the global logger from the
// config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithGracefulTimeout bounds the time stop hooks get at shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) { s.gracefulTimeout = d }
}
