package logger

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newOutput returns the sink for log records and a closer for the rotated
// file, if any.
func newOutput(cfg Config) (io.Writer, func() error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.File.Path == "" {
		return out, func() error { return nil }
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.File.Path,
		MaxSize:    orDefault(cfg.File.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.File.MaxBackups, 5),
		MaxAge:     orDefault(cfg.File.MaxAgeDays, 14),
		Compress:   cfg.File.Compress,
	}
	return io.MultiWriter(out, lj), lj.Close
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
