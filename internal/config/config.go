// Package config loads the engine's runtime configuration: tick cadence,
// control-flag defaults, and the Postgres DSN knobs for internal/storage.
// Follows the teacher's Default*()/Load*(path) YAML pattern.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine holds all configuration for the encounter aggregation engine
// and its peripheral adapters (spec §5, §6).
type Engine struct {
	// Live Broadcast Loop cadence (spec §5 "Tick cadence").
	EmitIntervalMs      int `yaml:"emit_interval_ms"`
	LowPerfEmitIntervalMs int `yaml:"low_perf_emit_interval_ms"`
	PartyRefreshMs      int `yaml:"party_refresh_ms"`

	// Control-flag defaults (spec §6 "Control flags"); runtime commands
	// can still flip these via the emitter's named events.
	LowPerformanceMode bool `yaml:"low_performance_mode"`
	BossOnlyDamage     bool `yaml:"boss_only_damage"`
	EmitDetails        bool `yaml:"emit_details"`

	// Damage lockout after RaidResult/TriggerStart wipe (spec §4.5).
	DamageLockoutMs int `yaml:"damage_lockout_ms"`

	LogLevel string `yaml:"log_level"`

	Database  DatabaseConfig  `yaml:"database"`
	HTTP      HTTPConfig      `yaml:"http"`
	Redis     RedisConfig     `yaml:"redis"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// HTTPConfig configures internal/httpapi's control/read-model surface.
type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// RedisConfig configures internal/emit/redisemit's publish connection.
// Addr empty means the orchestrator skips wiring a Redis emitter.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// ArchiveConfig configures internal/archive's MongoDB connection. URI
// empty means the orchestrator skips wiring the archive store.
type ArchiveConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// AnalyticsConfig configures internal/analytics' ClickHouse connection.
// Empty Addr means the orchestrator skips wiring the uploader.
type AnalyticsConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// IngestConfig configures internal/ingest's capture-replay packet
// source (spec §1's out-of-scope real-time capture collaborator).
type IngestConfig struct {
	CapturePath string `yaml:"capture_path"`
	BlowfishKeyHex string `yaml:"blowfish_key_hex"`
}

// DatabaseConfig holds PostgreSQL connection parameters for
// internal/storage's pgx pool.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns          int32  `yaml:"max_conns"`
	MinConns          int32  `yaml:"min_conns"`
	MaxConnLifetime   string `yaml:"max_conn_lifetime"`
	MaxConnIdleTime   string `yaml:"max_conn_idle_time"`
	HealthCheckPeriod string `yaml:"health_check_period"`
}

// DSN returns the PostgreSQL connection string consumed by pgxpool.
func (d DatabaseConfig) DSN() string {
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)

	var params []string
	if d.MaxConns > 0 {
		params = append(params, fmt.Sprintf("pool_max_conns=%d", d.MaxConns))
	}
	if d.MinConns > 0 {
		params = append(params, fmt.Sprintf("pool_min_conns=%d", d.MinConns))
	}
	if d.MaxConnLifetime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_lifetime=%s", d.MaxConnLifetime))
	}
	if d.MaxConnIdleTime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_idle_time=%s", d.MaxConnIdleTime))
	}
	if d.HealthCheckPeriod != "" {
		params = append(params, fmt.Sprintf("pool_health_check_period=%s", d.HealthCheckPeriod))
	}

	if len(params) > 0 {
		return base + "&" + strings.Join(params, "&")
	}
	return base
}

// EmitInterval returns the configured emit tick as a time.Duration,
// accounting for low-performance mode (spec §5: 200ms default, 1500ms
// low-performance).
func (e Engine) EmitInterval() time.Duration {
	if e.LowPerformanceMode {
		return time.Duration(e.LowPerfEmitIntervalMs) * time.Millisecond
	}
	return time.Duration(e.EmitIntervalMs) * time.Millisecond
}

// PartyRefreshInterval returns the configured party-refresh cadence.
func (e Engine) PartyRefreshInterval() time.Duration {
	return time.Duration(e.PartyRefreshMs) * time.Millisecond
}

// DamageLockout returns the post-wipe/post-clear damage-lockout window.
func (e Engine) DamageLockout() time.Duration {
	return time.Duration(e.DamageLockoutMs) * time.Millisecond
}

// DefaultEngine returns Engine config with the defaults named in spec §5.
func DefaultEngine() Engine {
	return Engine{
		EmitIntervalMs:        200,
		LowPerfEmitIntervalMs: 1500,
		PartyRefreshMs:        2000,
		LowPerformanceMode:    false,
		BossOnlyDamage:        false,
		EmitDetails:           true,
		DamageLockoutMs:       10_000,
		LogLevel:              "info",
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "raidtrack",
			Password: "raidtrack",
			DBName:  "raidtrack",
			SSLMode: "disable",
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Redis: RedisConfig{
			Channel: "raidtrack:events",
		},
		Archive: ArchiveConfig{
			Database: "raidtrack",
		},
		Analytics: AnalyticsConfig{
			Database: "raidtrack",
			Username: "default",
		},
	}
}

// LoadEngine loads engine config from a YAML file, falling back to
// DefaultEngine() for any field the file omits, and to pure defaults if
// the file doesn't exist.
func LoadEngine(path string) (Engine, error) {
	cfg := DefaultEngine()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
