package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the relay
type Config struct {
	ListenPorts    []int
	HTTPAddr       string
	DBPath         string
	AcceptPartial  bool
	ZoneSlotOffset int
	ZoneTable      string // canonical or legacy
	HistoryLimit   int
	Archive        ArchiveConfig
	RateLimit      RateLimitConfig
	Staleness      StalenessConfig
	Log            LogConfig
}

// Zone band tables selectable with zone_table
const (
	ZoneTableCanonical = "canonical"
	ZoneTableLegacy    = "legacy"
)

// ArchiveConfig controls the SQLite archive of received bulletins
type ArchiveConfig struct {
	Enabled      bool
	BatchSize    int
	BatchTimeout time.Duration
}

// RateLimitConfig bounds how many datagrams per second each listener accepts
type RateLimitConfig struct {
	PerSecond float64 // 0 disables limiting
	Burst     int
}

// StalenessConfig controls the latest-bulletin age check
type StalenessConfig struct {
	CheckInterval time.Duration
	MaxAge        time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("listen_ports", "5005")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_path", "bulletins.db")
	v.SetDefault("accept_partial", true)
	v.SetDefault("zone_slot_offset", 0)
	v.SetDefault("zone_table", ZoneTableCanonical)
	v.SetDefault("history_limit", 100)
	v.SetDefault("archive.enabled", true)
	v.SetDefault("archive.batch_size", 10)
	v.SetDefault("archive.batch_timeout", "1s")
	v.SetDefault("rate_limit.per_second", 20.0)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("staleness.check_interval", "1m")
	v.SetDefault("staleness.max_age", "6h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/metcm_relay")
	v.AddConfigPath(".")

	// Explicit config file path, set from the -config flag in main.go
	if configPath := os.Getenv("METCM_RELAY_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK - defaults + env vars apply
	}

	v.SetEnvPrefix("METCM_RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	ports, err := parsePorts(v.GetStringSlice("listen_ports"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		ListenPorts:    ports,
		HTTPAddr:       v.GetString("http_addr"),
		DBPath:         v.GetString("db_path"),
		AcceptPartial:  v.GetBool("accept_partial"),
		ZoneSlotOffset: v.GetInt("zone_slot_offset"),
		ZoneTable:      strings.ToLower(v.GetString("zone_table")),
		HistoryLimit:   v.GetInt("history_limit"),
		Archive: ArchiveConfig{
			Enabled:      v.GetBool("archive.enabled"),
			BatchSize:    v.GetInt("archive.batch_size"),
			BatchTimeout: v.GetDuration("archive.batch_timeout"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: v.GetFloat64("rate_limit.per_second"),
			Burst:     v.GetInt("rate_limit.burst"),
		},
		Staleness: StalenessConfig{
			CheckInterval: v.GetDuration("staleness.check_interval"),
			MaxAge:        v.GetDuration("staleness.max_age"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parsePorts accepts a YAML list or a comma/space separated env value
func parsePorts(raw []string) ([]int, error) {
	var ports []int
	for _, item := range raw {
		for _, field := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			p, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("listen_ports: %q is not a port number", field)
			}
			ports = append(ports, p)
		}
	}
	return ports, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if len(cfg.ListenPorts) == 0 {
		return fmt.Errorf("at least one listen port is required")
	}

	seen := make(map[int]bool, len(cfg.ListenPorts))
	for _, p := range cfg.ListenPorts {
		if p < 1 || p > 65535 {
			return fmt.Errorf("listen port %d out of range 1-65535", p)
		}
		if seen[p] {
			return fmt.Errorf("listen port %d given more than once", p)
		}
		seen[p] = true
	}

	if cfg.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}

	if cfg.ZoneSlotOffset < -31 || cfg.ZoneSlotOffset > 31 {
		return fmt.Errorf("zone_slot_offset must be between -31 and 31")
	}

	if cfg.ZoneTable != ZoneTableCanonical && cfg.ZoneTable != ZoneTableLegacy {
		return fmt.Errorf("invalid zone_table: %s (must be %s or %s)", cfg.ZoneTable, ZoneTableCanonical, ZoneTableLegacy)
	}

	if cfg.Archive.Enabled {
		if cfg.DBPath == "" {
			return fmt.Errorf("db_path is required when the archive is enabled")
		}
		if cfg.Archive.BatchSize <= 0 {
			return fmt.Errorf("archive.batch_size must be greater than 0")
		}
		if cfg.Archive.BatchTimeout <= 0 {
			return fmt.Errorf("archive.batch_timeout must be greater than 0")
		}
	}

	if cfg.RateLimit.PerSecond < 0 {
		return fmt.Errorf("rate_limit.per_second must not be negative")
	}

	if cfg.Staleness.CheckInterval <= 0 {
		return fmt.Errorf("staleness.check_interval must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
