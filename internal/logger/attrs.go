package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// ensureInstanceID prefers an explicit id, then POD_NAME, then host plus a
// short random suffix so two processes on one host stay distinguishable.
func ensureInstanceID(v string) string {
	if v != "" {
		return v
	}
	if pod := os.Getenv("POD_NAME"); pod != "" {
		return pod
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "meetings"
	}
	return host + "-" + uuid.NewString()[:8]
}

func commonAttr(cfg Config) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("instance_id", cfg.InstanceID),
		slog.Int("pid", os.Getpid()),
		slog.Time("started_at", time.Now().UTC()),
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	return attrs
}
