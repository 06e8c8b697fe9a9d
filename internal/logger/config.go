package logger

import (
	"io"
	"log/slog"
)

type Backend string

const (
	BackendStd Backend = "std" // text в dev, JSON в stage/prod
	BackendZap Backend = "zap" // zap core через slog-zap
)

type Config struct {
	// Метаданные, попадают в каждую запись
	Service    string
	Version    string
	InstanceID string

	Level     slog.Level
	Env       Env
	Backend   Backend // default: zap для stage/prod, std для dev
	Debug     bool
	AddSource bool

	// Zap sampling
	SampleInitial    int
	SampleThereafter int

	// File дублирует вывод в файл с ротацией. Пустой Path отключает.
	File FileConfig

	// Output заменяет stdout (тесты)
	Output io.Writer
}

type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func (c Config) level() slog.Level {
	if c.Debug && c.Level == 0 {
		return slog.LevelDebug
	}
	return c.Level
}

// ParseLevel accepts debug/info/warn/error, empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(s))
	return l, err
}
