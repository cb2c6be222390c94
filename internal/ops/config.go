// Package ops loads the runtime configuration.
package ops

import (
	"encoding/json"
	"os"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// Config mirrors the JSON config layout.
type Config struct {
	Symbol                string `json:"symbol"`
	BarSpanSeconds        int    `json:"barSpanSeconds"`
	MaxBoardSnapshotCount int    `json:"maxBoardSnapshotCount"`
	MaxTickRows           int    `json:"maxTickRows"`
	MaxOhlcvRows          int    `json:"maxOhlcvRows"`

	Feed       FeedConfig       `json:"feed"`
	Database   DatabaseConfig   `json:"database"`
	API        APIConfig        `json:"api"`
	Supervisor SupervisorConfig `json:"supervisor"`
	Profiling  ProfilingConfig  `json:"profiling"`
}

// FeedConfig points at the public websocket endpoint. Empty means production.
type FeedConfig struct {
	WsURL string `json:"wsUrl"`
}

// DatabaseConfig selects the store medium: "sqlite" (default, in-memory when
// DSN is empty) or "postgres".
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// APIConfig carries the private-endpoint credentials. Empty fields fall back
// to the EXCHANGE_API_KEY / EXCHANGE_API_SECRET environment variables.
type APIConfig struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// SupervisorConfig governs pipeline restarts.
type SupervisorConfig struct {
	MaxRestarts    int `json:"maxRestarts"`    // 0 means unlimited
	BackoffSeconds int `json:"backoffSeconds"` // base of the exponential backoff
}

// ProfilingConfig enables continuous profiling.
type ProfilingConfig struct {
	Enabled       bool   `json:"enabled"`
	ServerAddress string `json:"serverAddress"`
}

const (
	defaultSymbol         = "BTC_JPY"
	defaultBarSpanSeconds = 5
	defaultMaxRows        = 1000
	defaultBackoffSeconds = 1
	defaultDriver         = "sqlite"
)

// Load reads and resolves a JSON config file. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file").With("path", path)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "parse config file").With("path", path)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Symbol == "" {
		cfg.Symbol = defaultSymbol
	}
	if cfg.BarSpanSeconds == 0 {
		cfg.BarSpanSeconds = defaultBarSpanSeconds
	}
	if cfg.MaxBoardSnapshotCount == 0 {
		cfg.MaxBoardSnapshotCount = defaultMaxRows
	}
	if cfg.MaxTickRows == 0 {
		cfg.MaxTickRows = defaultMaxRows
	}
	if cfg.MaxOhlcvRows == 0 {
		cfg.MaxOhlcvRows = defaultMaxRows
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaultDriver
	}
	if cfg.Supervisor.BackoffSeconds == 0 {
		cfg.Supervisor.BackoffSeconds = defaultBackoffSeconds
	}
	if cfg.API.Key == "" {
		cfg.API.Key = os.Getenv("EXCHANGE_API_KEY")
	}
	if cfg.API.Secret == "" {
		cfg.API.Secret = os.Getenv("EXCHANGE_API_SECRET")
	}
}

func (cfg Config) validate() error {
	if cfg.BarSpanSeconds < 1 {
		return errors.Wrap(exception.ErrInvalidArgument, "barSpanSeconds should be 1 or more")
	}
	if cfg.MaxBoardSnapshotCount < 1 || cfg.MaxTickRows < 1 || cfg.MaxOhlcvRows < 1 {
		return errors.Wrap(exception.ErrInvalidArgument, "retention caps should be 1 or more")
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.Wrap(exception.ErrInvalidArgument, "unknown database driver").
			With("driver", cfg.Database.Driver)
	}

	return nil
}
