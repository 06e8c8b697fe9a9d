package logger

import (
	"log/slog"
	"sync"
)

var (
	mu  sync.RWMutex
	def *slog.Logger
)

// New builds a logger for cfg. The returned func releases the file sink.
func New(cfg Config) (*slog.Logger, func() error) {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "meetings"
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)

	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	out, closeFn := newOutput(cfg)

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(cfg, out)
	default:
		h = newStdHandler(cfg, out)
	}

	return slog.New(h.WithAttrs(commonAttr(cfg))), closeFn
}

// Init настраивает slog по умолчанию
func Init(cfg Config) func() error {
	l, closeFn := New(cfg)
	slog.SetDefault(l)

	mu.Lock()
	def = l
	mu.Unlock()

	return closeFn
}

func L() *slog.Logger {
	mu.RLock()
	l := def
	mu.RUnlock()
	if l != nil {
		return l
	}
	return slog.Default()
}
