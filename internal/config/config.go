// Package config loads the daemon configuration from a YAML file with
// AIRTAG_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "AIRTAG"

var (
	ErrReadConfig    = errors.New("read config failed")
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	Log             LogConfig          `mapstructure:"log"`
	PollingInterval time.Duration      `mapstructure:"polling_interval"`
	ReportSource    ReportSourceConfig `mapstructure:"report_source"`
	BLE             BLEConfig          `mapstructure:"ble"`
	CallTimeout     time.Duration      `mapstructure:"call_timeout"`
	Bus             BusConfig          `mapstructure:"bus"`
	State           StateConfig        `mapstructure:"state"`
	HTTP            HTTPConfig         `mapstructure:"http"`
	AirTags         []AirTag           `mapstructure:"airtags"`

	// Dir is the directory of the loaded file; relative paths resolve
	// against it.
	Dir string `mapstructure:"-"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ReportSourceConfig struct {
	URL      string        `mapstructure:"url"`
	Token    string        `mapstructure:"token"`
	Lookback time.Duration `mapstructure:"lookback"`
}

type BLEConfig struct {
	ScanDuration    time.Duration `mapstructure:"scan_duration"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	UnseenThreshold time.Duration `mapstructure:"unseen_threshold"`
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	Adapter         string        `mapstructure:"adapter"`
}

type BusConfig struct {
	Kind  string      `mapstructure:"kind"`
	MQTT  MQTTConfig  `mapstructure:"mqtt"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	NATS  NATSConfig  `mapstructure:"nats"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type StateConfig struct {
	Kind           string `mapstructure:"kind"`
	Path           string `mapstructure:"path"`
	PostgresURL    string `mapstructure:"postgres_url"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// AirTag is one tracked device. ID doubles as the topic prefix.
type AirTag struct {
	ID              string `mapstructure:"ha_mqtt_id"`
	CredentialPath  string `mapstructure:"credential_path"`
	ReportAccessory string `mapstructure:"report_accessory"`
}

// Load reads path, applies defaults and environment overrides, resolves
// relative paths and validates the result.
func Load(path string) (*Config, error) {
	const fn = "Config:Load"
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrReadConfig, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrReadConfig, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrReadConfig, err)
	}
	cfg.Dir = filepath.Dir(abs)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Bus.Kind = strings.ToLower(strings.TrimSpace(c.Bus.Kind))
	c.State.Kind = strings.ToLower(strings.TrimSpace(c.State.Kind))
	if c.BLE.CheckInterval <= 0 {
		c.BLE.CheckInterval = c.BLE.ScanInterval
	}
	c.State.Path = c.resolve(c.State.Path)
	for i := range c.AirTags {
		c.AirTags[i].ID = strings.TrimSpace(c.AirTags[i].ID)
		c.AirTags[i].CredentialPath = c.resolve(c.AirTags[i].CredentialPath)
	}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// LogLevel parses log.level, falling back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DeviceIDs lists the configured devices in file order.
func (c *Config) DeviceIDs() []string {
	ids := make([]string, 0, len(c.AirTags))
	for _, tag := range c.AirTags {
		ids = append(ids, tag.ID)
	}
	return ids
}
