package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Backend selects the durable store implementation.
type Backend string

// Supported store backends.
const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// Config contains runtime settings for the storage tool.
type Config struct {
	NodeID   uint32 `toml:"node_id"`
	LogLevel string `toml:"log_level"`

	Backend Backend `toml:"backend"`
	DataDir string  `toml:"data_dir"`

	MetricsAddr string `toml:"metrics_addr"`
	PprofAddr   string `toml:"pprof_addr"`

	TracingEnabled     bool   `toml:"tracing_enabled"`
	TracingEndpoint    string `toml:"tracing_endpoint"`
	TracingServiceName string `toml:"tracing_service_name"`
}

// DefaultConfig returns a local-development configuration.
func DefaultConfig() Config {
	return Config{
		NodeID:             1,
		LogLevel:           "info",
		Backend:            BackendFile,
		DataDir:            "./var/raftstore",
		TracingServiceName: "raftstore",
	}
}

// LoadConfig builds the configuration in three layers: defaults, then the
// TOML file at path (skipped when path is empty), then environment variables.
//
// Supported vars:
// - RAFTSTORE_NODE_ID (uint32)
// - RAFTSTORE_LOG_LEVEL (debug|info|warn|error)
// - RAFTSTORE_BACKEND (memory|file|sqlite)
// - RAFTSTORE_DATA_DIR
// - RAFTSTORE_METRICS_ADDR
// - RAFTSTORE_PPROF_ADDR
// - RAFTSTORE_TRACING_ENABLED (true|false)
// - RAFTSTORE_TRACING_ENDPOINT
// - RAFTSTORE_TRACING_SERVICE_NAME
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("app: load config %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_NODE_ID")); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("app: invalid RAFTSTORE_NODE_ID %q: %w", v, err)
		}
		cfg.NodeID = uint32(id)
	}
	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_LOG_LEVEL")); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_BACKEND")); v != "" {
		cfg.Backend = Backend(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_METRICS_ADDR")); v != "" {
		cfg.MetricsAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_PPROF_ADDR")); v != "" {
		cfg.PprofAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_TRACING_ENABLED")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("app: invalid RAFTSTORE_TRACING_ENABLED %q: %w", v, err)
		}
		cfg.TracingEnabled = enabled
	}
	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_TRACING_ENDPOINT")); v != "" {
		cfg.TracingEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("RAFTSTORE_TRACING_SERVICE_NAME")); v != "" {
		cfg.TracingServiceName = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and supported.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("app: unsupported log level %q", c.LogLevel)
	}
	switch c.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("app: unsupported backend %q", c.Backend)
	}
	if c.Backend != BackendMemory && strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("app: data dir is required for backend %q", c.Backend)
	}
	if c.TracingEnabled && strings.TrimSpace(c.TracingEndpoint) == "" {
		return fmt.Errorf("app: tracing endpoint is required when tracing is enabled")
	}
	return nil
}
