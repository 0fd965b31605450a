package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the ROI core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	SSH       SSHConfig       `yaml:"ssh"`
	Actuation ActuationConfig `yaml:"actuation"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	API       APIConfig       `yaml:"api"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains settings for the locally owned SQLite database.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// UpstreamConfig describes the shared per-tenant datastore that external
// cameras and rule documents are read from.
type UpstreamConfig struct {
	// Schemas maps a tenant schema name to the SQLite file attached under that name.
	Schemas map[string]string `yaml:"schemas"`

	// CameraTable is the per-schema table holding camera rows.
	CameraTable string `yaml:"camera_table"`

	// ConfigTable is the per-schema table holding RegionAIConfig documents.
	ConfigTable string `yaml:"config_table"`

	// CacheTTL is the external device cache lifetime in seconds.
	CacheTTL int `yaml:"cache_ttl"`

	// QueryTimeout bounds a full refresh across every schema (seconds).
	QueryTimeout int `yaml:"query_timeout"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig contains circuit breaker settings for upstream refreshes.
type BreakerConfig struct {
	MaxRequests      uint32  `yaml:"max_requests"`
	Interval         int     `yaml:"interval"`
	Timeout          int     `yaml:"timeout"`
	MinRequests      uint32  `yaml:"min_requests"`
	FailureThreshold float64 `yaml:"failure_threshold"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker  MQTTBrokerConfig  `yaml:"broker"`
	Auth    MQTTAuthConfig    `yaml:"auth"`
	QoS     int               `yaml:"qos"`
	Restart MQTTRestartConfig `yaml:"restart"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTRestartConfig is the fixed restart message published to devices
// that have no remote-shell details.
type MQTTRestartConfig struct {
	Topic   string `yaml:"topic"`
	Payload string `yaml:"payload"`
}

// SSHConfig contains defaults for remote-shell actuation. Per-device
// connection details override Port and User when present.
type SSHConfig struct {
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	KeyFile        string `yaml:"key_file"`
	Port           int    `yaml:"port"`
	RestartCommand string `yaml:"restart_command"`
	KnownHostsFile string `yaml:"known_hosts_file"`
}

// ActuationConfig contains device notification settings.
type ActuationConfig struct {
	Enabled bool `yaml:"enabled"`

	// ConnectTimeout bounds each SSH dial or MQTT connect+publish (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`
}

// SnapshotConfig contains frame-grab settings.
type SnapshotConfig struct {
	FFmpegBinary    string `yaml:"ffmpeg_binary"`
	Deadline        int    `yaml:"deadline"`
	TempDir         string `yaml:"temp_dir"`
	AnalyzeDuration int    `yaml:"analyze_duration"`
	ProbeSize       int    `yaml:"probe_size"`
	Scale           string `yaml:"scale"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MinIOConfig contains object storage settings for archived snapshots.
type MinIOConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	UseSSL        bool   `yaml:"use_ssl"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ROICORE_SECTION_KEY
// For example: ROICORE_DATABASE_PATH, ROICORE_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "ROI Core",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/roicore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Upstream: UpstreamConfig{
			CameraTable:  "cameras",
			ConfigTable:  "region_ai_configs",
			CacheTTL:     30,
			QueryTimeout: 10,
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         60,
				Timeout:          30,
				MinRequests:      5,
				FailureThreshold: 0.6,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "roicore",
			},
			QoS: 1,
			Restart: MQTTRestartConfig{
				Topic:   "roicore/command/restart",
				Payload: `{"command":"restart"}`,
			},
		},
		SSH: SSHConfig{
			User:           "root",
			Port:           22,
			RestartCommand: "systemctl restart ai-engine",
		},
		Actuation: ActuationConfig{
			Enabled:        true,
			ConnectTimeout: 10,
		},
		Snapshot: SnapshotConfig{
			FFmpegBinary:    "ffmpeg",
			Deadline:        15,
			AnalyzeDuration: 1000000,
			ProbeSize:       1000000,
			Scale:           "1280:-1",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		MinIO: MinIOConfig{
			Endpoint: "localhost:9000",
			Bucket:   "roi-snapshots",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ROICORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("ROICORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ROICORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ROICORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ROICORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// SSH
	if v := os.Getenv("ROICORE_SSH_USER"); v != "" {
		cfg.SSH.User = v
	}
	if v := os.Getenv("ROICORE_SSH_PASSWORD"); v != "" {
		cfg.SSH.Password = v
	}
	if v := os.Getenv("ROICORE_SSH_KEY_FILE"); v != "" {
		cfg.SSH.KeyFile = v
	}

	// Snapshot
	if v := os.Getenv("ROICORE_FFMPEG_BINARY"); v != "" {
		cfg.Snapshot.FFmpegBinary = v
	}

	// API
	if v := os.Getenv("ROICORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("ROICORE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("ROICORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// MinIO
	if v := os.Getenv("ROICORE_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("ROICORE_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("ROICORE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Upstream.CacheTTL <= 0 {
		errs = append(errs, "upstream.cache_ttl must be positive")
	}
	if c.Upstream.CameraTable == "" || c.Upstream.ConfigTable == "" {
		errs = append(errs, "upstream.camera_table and upstream.config_table are required")
	}
	for name, path := range c.Upstream.Schemas {
		if !isIdentifier(name) {
			errs = append(errs, fmt.Sprintf("upstream.schemas: %q is not a valid schema name", name))
		}
		if path == "" {
			errs = append(errs, fmt.Sprintf("upstream.schemas.%s: path is required", name))
		}
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Restart.Topic == "" {
		errs = append(errs, "mqtt.restart.topic is required")
	}

	if c.Actuation.ConnectTimeout <= 0 {
		errs = append(errs, "actuation.connect_timeout must be positive")
	}

	if c.Snapshot.FFmpegBinary == "" {
		errs = append(errs, "snapshot.ffmpeg_binary is required")
	}
	if c.Snapshot.Deadline <= 0 {
		errs = append(errs, "snapshot.deadline must be positive")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.MinIO.Enabled && (c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "") {
		errs = append(errs, "minio.access_key and minio.secret_key are required when minio is enabled")
	}

	// Forged tokens would let a caller read or rewrite any tenant's rules.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set ROICORE_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// isIdentifier reports whether s is safe to splice into SQL as a schema name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// CacheTTLDuration returns the external device cache lifetime.
func (c UpstreamConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// DeadlineDuration returns the frame-grab deadline.
func (c SnapshotConfig) DeadlineDuration() time.Duration {
	return time.Duration(c.Deadline) * time.Second
}

// ConnectTimeoutDuration returns the per-channel actuation timeout.
func (c ActuationConfig) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}
