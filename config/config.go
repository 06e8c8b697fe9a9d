package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MEETINGS_HTTP_ADDR
// or MEETINGS_STORAGE_POSTGRES_DSN.
const EnvPrefix = "MEETINGS"

type HTTP struct {
	Addr            string        `yaml:"addr" split_words:"true"`
	CORSOrigins     []string      `yaml:"corsOrigins" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"readTimeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
}

type GRPC struct {
	Addr string `yaml:"addr" split_words:"true"`
}

type Logging struct {
	Env       string `yaml:"env" split_words:"true"`         // dev|stage|prod
	Service   string `yaml:"service" split_words:"true"` // meeting-service
	Version   string `yaml:"version" split_words:"true"` // v0.1.0
	Backend   string `yaml:"backend" split_words:"true"` // std|zap
	Level     string `yaml:"level" split_words:"true"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource" split_words:"true"`
	Debug     bool   `yaml:"debug" split_words:"true"`
	File      string `yaml:"file" split_words:"true"` // пусто = только stdout
	MaxSizeMB int    `yaml:"maxSizeMB" split_words:"true"`
}

type Postgres struct {
	DSN               string        `yaml:"dsn" split_words:"true"`
	MaxConns          int32         `yaml:"maxConns" split_words:"true"`
	MinConns          int32         `yaml:"minConns" split_words:"true"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime" split_words:"true"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime" split_words:"true"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod" split_words:"true"`
}

type Badger struct {
	Path     string `yaml:"path" split_words:"true"`
	InMemory bool   `yaml:"inMemory" split_words:"true"`
}

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type Storage struct {
	Driver   string   `yaml:"driver" split_words:"true"` // postgres|badger
	Postgres Postgres `yaml:"postgres"`
	Badger   Badger   `yaml:"badger"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwtSecret" split_words:"true"`
	Issuer    string        `yaml:"issuer" split_words:"true"`
	Audience  string        `yaml:"audience" split_words:"true"`
	ClockSkew time.Duration `yaml:"clockSkew" split_words:"true"`
}

type Meetings struct {
	DefaultMaxParticipants int `yaml:"defaultMaxParticipants" split_words:"true"`
	MaxParticipantsLimit   int `yaml:"maxParticipantsLimit" split_words:"true"`
}

type Signals struct {
	Retention     time.Duration `yaml:"retention" split_words:"true"`
	FetchLimit    int           `yaml:"fetchLimit" split_words:"true"`
	PruneInterval time.Duration `yaml:"pruneInterval" split_words:"true"` // 0 = выключено
}

type WS struct {
	PingEvery         time.Duration `yaml:"pingEvery" split_words:"true"`
	LeaveOnDisconnect bool          `yaml:"leaveOnDisconnect" split_words:"true"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Storage  Storage  `yaml:"storage"`
	Auth     Auth     `yaml:"auth"`
	Meetings Meetings `yaml:"meetings"`
	Signals  Signals  `yaml:"signals"`
	WS       WS       `yaml:"ws"`
	ICE      ICE      `yaml:"ice"`
}

// LoadConfig reads CONFIG_PATH (default ./config/config.yaml).
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

// Load reads the YAML file at path, applies MEETINGS_* environment
// overrides, then validates and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "", DriverPostgres:
		c.Storage.Driver = DriverPostgres
		if c.Storage.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required")
		}
	case DriverBadger:
		if c.Storage.Badger.Path == "" && !c.Storage.Badger.InMemory {
			return errors.New("storage.badger.path is required")
		}
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret is required")
	}

	if err := c.ICE.resolve(); err != nil {
		return fmt.Errorf("ice: %w", err)
	}

	// установка дефолтов, если значения не указаны
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "meeting-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Auth.ClockSkew <= 0 {
		c.Auth.ClockSkew = 30 * time.Second
	}
	if c.Meetings.DefaultMaxParticipants <= 0 {
		c.Meetings.DefaultMaxParticipants = 8
	}
	if c.Meetings.MaxParticipantsLimit <= 0 {
		c.Meetings.MaxParticipantsLimit = 50
	}
	if c.Meetings.DefaultMaxParticipants > c.Meetings.MaxParticipantsLimit {
		return fmt.Errorf("meetings.defaultMaxParticipants (%d) exceeds maxParticipantsLimit (%d)",
			c.Meetings.DefaultMaxParticipants, c.Meetings.MaxParticipantsLimit)
	}
	if c.Signals.Retention <= 0 {
		c.Signals.Retention = 5 * time.Minute
	}
	if c.Signals.FetchLimit <= 0 {
		c.Signals.FetchLimit = 50
	}
	if c.Signals.PruneInterval < 0 {
		c.Signals.PruneInterval = 0
	}
	if c.WS.PingEvery <= 0 {
		c.WS.PingEvery = 15 * time.Second
	}
	return nil
}
