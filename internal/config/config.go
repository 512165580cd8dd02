package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// EnvPrefix prefixes every environment variable that overrides the config file.
// Variables are always fully qualified, e.g. REDIRECTOR_SQLITE_PATH or
// REDIRECTOR_HTTP_READ_TIMEOUT; bare names like PATH or PORT are never read.
const EnvPrefix = "REDIRECTOR"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env             string     `yaml:"env" split_words:"true"`
	BaseURL         string     `yaml:"base_url" split_words:"true"`
	KeyLength       int        `yaml:"key_length" split_words:"true"`
	SecretKeyLength int        `yaml:"secret_key_length" split_words:"true"`
	Storage         Storage    `yaml:"storage" envconfig:"STORAGE"`
	SQLite          SQLite     `yaml:"sqlite" envconfig:"SQLITE"`
	Log             Log        `yaml:"log" envconfig:"LOG"`
	HTTPServer      HTTPServer `yaml:"http_server" envconfig:"HTTP"`
	Postgres        Postgres   `yaml:"postgres" envconfig:"POSTGRES"`
}

type Storage struct {
	Backend string `yaml:"backend" split_words:"true"`
}

type SQLite struct {
	Path string `yaml:"path" split_words:"true"`
}

type Log struct {
	Level string `yaml:"level" split_words:"true"`
	JSON  bool   `yaml:"json" split_words:"true"`
}

// SlogLevel maps the configured level name onto slog, defaulting to info.
func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type HTTPServer struct {
	Port           int           `yaml:"port" split_words:"true"`
	ReadTimeout    time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout   time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" split_words:"true"`
	CertFile       string        `yaml:"cert_file" split_words:"true"`
	KeyFile        string        `yaml:"key_file" split_words:"true"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8000,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user" split_words:"true"`
	Password        string        `yaml:"password" split_words:"true"`
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true"`
	DB              string        `yaml:"db" split_words:"true"`
	SSLMode         string        `yaml:"sslmode" split_words:"true"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" split_words:"true"`
	MaxIdleConns    int           `yaml:"max_idle_conns" split_words:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" split_words:"true"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	DB:              "shortener",
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    3,
	MaxOpenConns:    3,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(p.User), url.QueryEscape(p.Password), p.Host, p.Port, p.DB, p.SSLMode)
}

// Target describes the database without credentials, for logging.
func (p *Postgres) Target() string {
	return fmt.Sprintf("postgres://%s:%d/%s", p.Host, p.Port, p.DB)
}

// Load reads the YAML file at path over the defaults and then applies
// REDIRECTOR_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to read environment: %w", op, err)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url %q must be an absolute url", ErrInvalidConfig, c.BaseURL)
	}

	if c.KeyLength <= 0 {
		return fmt.Errorf("%w: key_length must be positive", ErrInvalidConfig)
	}

	if c.SecretKeyLength <= 0 {
		return fmt.Errorf("%w: secret_key_length must be positive", ErrInvalidConfig)
	}

	switch c.Storage.Backend {
	case BackendPostgres, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8000"
	cfg.KeyLength = 5
	cfg.SecretKeyLength = 8
	cfg.Storage = Storage{Backend: BackendSQLite}
	cfg.SQLite = SQLite{Path: "./shortener.db"}
	cfg.Log = Log{Level: "info"}
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
}
