package kvidx

import (
	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/kvidx/internal/kvconfig"
	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// Option configures an Instance at Open time. Functional options let
// Open grow new optional knobs without breaking existing call sites,
// the same shape ry256-slb's db layer uses for OpenOptions.
type Option func(*openSettings)

type openSettings struct {
	logger   *log.Logger
	cfg      kvstore.Config
	initHook func(*Instance) error
}

func defaultSettings() openSettings {
	return openSettings{logger: log.Default(), cfg: kvconfig.Default()}
}

// WithLogger overrides the charmbracelet/log logger an Instance writes
// operational messages to; the default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(s *openSettings) { s.logger = logger }
}

// WithConfig overrides the backend Config Open uses instead of
// kvconfig.Default().
func WithConfig(cfg kvstore.Config) Option {
	return func(s *openSettings) { s.cfg = cfg }
}

// WithInitHook registers a callback run once, immediately after Open
// succeeds and before Open returns — e.g. to seed a fresh store or run
// an application-level consistency check.
func WithInitHook(hook func(*Instance) error) Option {
	return func(s *openSettings) { s.initHook = hook }
}
