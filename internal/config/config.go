// Package config loads and validates a node's config.json and
// models ConfigStore (C3): immutable-after-bootstrap identity and peer
// lists.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// StorageBackend selects where FileStore bytes live.
type StorageBackend string

const (
	BackendLocal StorageBackend = "local"
	BackendS3    StorageBackend = "s3"
)

// Monitor is a peer monitor: { addr, bound }. bound[0] is the primary
// region. Two monitors are equal iff their Addr is equal.
type Monitor struct {
	Addr  string   `mapstructure:"addr" json:"addr" validate:"required"`
	Bound []string `mapstructure:"bound" json:"bound"`
}

// Equal implements the equality rule for monitors.
func (m Monitor) Equal(other Monitor) bool {
	return m.Addr == other.Addr
}

// Region returns bound[0], the primary region, or "" if unset.
func (m Monitor) Region() string {
	if len(m.Bound) == 0 {
		return ""
	}
	return m.Bound[0]
}

// Stat is Stat<T>: { value, weight }.
type Stat[T any] struct {
	Value  T       `mapstructure:"value" json:"value"`
	Weight float32 `mapstructure:"weight" json:"weight"`
}

// Stats is the node's static descriptor + rolling uptime counter. It is
// persisted by statstore, not here, but its shape is declared by the node's
// bootstrap config.json.
type Stats struct {
	Region        string      `mapstructure:"region" json:"region" validate:"required"`
	Uptime        Stat[[2]int] `mapstructure:"uptime" json:"uptime"`
	Capacity      Stat[uint64] `mapstructure:"capacity" json:"capacity"`
	Connection    Stat[uint64] `mapstructure:"connection" json:"connection"`
	UptimeCounter Stat[uint64] `mapstructure:"uptime_counter" json:"uptime_counter"`
	FirstOnline   int64        `mapstructure:"first_online" json:"first_online"`
}

// Config is the bootstrap config.json contract:
//
//	{ "port": u16, "manager_addr": "http://…", "fingerprint": "…", "stats": Stats, "ipv6": "…"? }
//
// Plus the ambient fields the node needs to run: storage backend selection,
// hashing algorithm, loop timeouts, and logging.
type Config struct {
	Port        int    `mapstructure:"port" json:"port" validate:"required,min=1,max=65535"`
	ManagerAddr string `mapstructure:"manager_addr" json:"manager_addr" validate:"required,url"`
	Fingerprint string `mapstructure:"fingerprint" json:"fingerprint" validate:"required"`
	Stats       Stats  `mapstructure:"stats" json:"stats"`
	IPv6        string `mapstructure:"ipv6" json:"ipv6,omitempty"`

	HashAlgorithm string `mapstructure:"hash_algorithm" json:"hash_algorithm,omitempty" validate:"omitempty,oneof=sha256 sha512"`

	Storage StorageConfig `mapstructure:"storage" json:"storage,omitempty"`

	Placement string `mapstructure:"placement" json:"placement,omitempty" validate:"omitempty,oneof=simple region-fan-out locale-biased"`
	Replicas  int    `mapstructure:"replications" json:"replications,omitempty"`

	Timeouts TimeoutsConfig `mapstructure:"timeouts" json:"timeouts,omitempty"`

	Logging LoggingConfig `mapstructure:"logging" json:"logging,omitempty"`

	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics,omitempty"`

	// Own monitor and peer list are filled in by registration (bootstrap),
	// not read from config.json; kept here because ConfigStore (C3) is the
	// single owner of identity and peer lists for the process lifetime.
	OwnMonitor Monitor   `mapstructure:"-" json:"-" validate:"-"`
	Monitors   []Monitor `mapstructure:"-" json:"-"`
}

// StorageConfig selects and configures the FileStore byte backend.
type StorageConfig struct {
	Backend StorageBackend `mapstructure:"backend" json:"backend,omitempty" validate:"omitempty,oneof=local s3"`
	S3      S3Config       `mapstructure:"s3" json:"s3,omitempty"`
}

// S3Config configures the optional S3-compatible backend.
type S3Config struct {
	Bucket   string `mapstructure:"bucket" json:"bucket,omitempty"`
	Prefix   string `mapstructure:"prefix" json:"prefix,omitempty"`
	Region   string `mapstructure:"region" json:"region,omitempty"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty"`
}

// TimeoutsConfig holds the loop timeouts as configurable per-deployment
// defaults.
type TimeoutsConfig struct {
	Ping     int `mapstructure:"ping_seconds" json:"ping_seconds,omitempty"`
	Recover  int `mapstructure:"recover_seconds" json:"recover_seconds,omitempty"`
	Distribute int `mapstructure:"distribute_seconds" json:"distribute_seconds,omitempty"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format string `mapstructure:"format" json:"format,omitempty" validate:"omitempty,oneof=text json"`
	Output string `mapstructure:"output" json:"output,omitempty"`
}

// MetricsConfig controls the optional prometheus listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled,omitempty"`
	Port    int  `mapstructure:"port" json:"port,omitempty"`
}

// Load reads config.json from <stateDir>/config.json via viper, applying
// NODE_<SECTION>_<KEY> environment overrides, decodes it, fills defaults,
// and validates it.
func Load(stateDir string) (*Config, error) {
	path := filepath.Join(stateDir, "config.json")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: state directory must contain config.json: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("NODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	decoder := func(c *mapstructure.DecoderConfig) {
		c.TagName = "mapstructure"
		c.ErrorUnused = false
	}
	if err := v.Unmarshal(&cfg, decoder); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Save writes cfg back to <stateDir>/config.json, used by `manode init`.
func Save(stateDir string, cfg *Config) error {
	// Registration results (OwnMonitor/Monitors) are intentionally not
	// persisted to config.json: a monitor reassignment requires a restart,
	// and restart always re-registers.
	data, err := marshalIndent(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	path := filepath.Join(stateDir, "config.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
