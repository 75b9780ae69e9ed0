package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/RichardKnop/ajxgate/internal/session"
)

const (
	DefaultPort        = 3000
	DefaultChunkSize   = 16384
	DefaultDataDir     = "data"
	DefaultLogLevel    = "info"
	DefaultIdleFlush   = 200 * time.Millisecond
	DefaultReadTimeout = 5 * time.Minute
)

var (
	errInvalidPort         = errors.New("port must be between 0 and 65535")
	errInvalidChunkSize    = errors.New("chunk size must be positive")
	errInvalidSessionScope = errors.New(`session scope must be "global" or "connection"`)
	errInvalidIdleFlush    = errors.New("idle flush must be positive")
	errSamePorts           = errors.New("http port must differ from port")
	errEmptyDataDir        = errors.New("data directory is required")
)

type Config struct {
	Port         int
	HTTPPort     int
	ChunkSize    int
	DataDir      string
	SessionScope session.Scope
	LogLevel     string
	IdleFlush    time.Duration
	// ReadTimeout closes connections idle for longer, zero disables it.
	ReadTimeout time.Duration
}

type fileConfig struct {
	Port         int    `toml:"port"`
	HTTPPort     int    `toml:"http_port"`
	ChunkSize    int    `toml:"chunk_size"`
	DataDir      string `toml:"data_dir"`
	SessionScope string `toml:"session_scope"`
	LogLevel     string `toml:"log_level"`
	IdleFlush    string `toml:"idle_flush"`
	ReadTimeout  string `toml:"read_timeout"`
}

func Default() Config {
	return Config{
		Port:         DefaultPort,
		ChunkSize:    DefaultChunkSize,
		DataDir:      DefaultDataDir,
		SessionScope: session.ScopeGlobal,
		LogLevel:     DefaultLogLevel,
		IdleFlush:    DefaultIdleFlush,
		ReadTimeout:  DefaultReadTimeout,
	}
}

// Load applies, in order, defaults, the TOML file at path (skipped when path
// is empty) and environment overrides, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.loadEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("port") {
		c.Port = raw.Port
	}
	if meta.IsDefined("http_port") {
		c.HTTPPort = raw.HTTPPort
	}
	if meta.IsDefined("chunk_size") {
		c.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("data_dir") {
		c.DataDir = strings.TrimSpace(raw.DataDir)
	}
	if meta.IsDefined("session_scope") {
		c.SessionScope = session.Scope(strings.TrimSpace(raw.SessionScope))
	}
	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("idle_flush") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleFlush))
		if err != nil {
			return fmt.Errorf("parse idle_flush: %w", err)
		}
		c.IdleFlush = d
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse read_timeout: %w", err)
		}
		c.ReadTimeout = d
	}

	return nil
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Port},
		{"HTTP_PORT", &c.HTTPPort},
		{"CHUNK_SIZE", &c.ChunkSize},
	}
	for _, anInt := range ints {
		v, ok := lookup(anInt.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %s: %w", anInt.key, err)
		}
		*anInt.dst = n
	}

	if v, ok := lookup("DATA_DIR"); ok && strings.TrimSpace(v) != "" {
		c.DataDir = strings.TrimSpace(v)
	}
	if v, ok := lookup("SESSION_SCOPE"); ok && strings.TrimSpace(v) != "" {
		c.SessionScope = session.Scope(strings.TrimSpace(v))
	}
	if v, ok := lookup("LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		c.LogLevel = strings.TrimSpace(v)
	}

	return nil
}

func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 || c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return errInvalidPort
	}
	if c.HTTPPort != 0 && c.HTTPPort == c.Port {
		return errSamePorts
	}
	if c.ChunkSize <= 0 {
		return errInvalidChunkSize
	}
	if c.SessionScope != session.ScopeGlobal && c.SessionScope != session.ScopeConnection {
		return errInvalidSessionScope
	}
	if c.IdleFlush <= 0 {
		return errInvalidIdleFlush
	}
	if c.DataDir == "" {
		return errEmptyDataDir
	}
	return nil
}
