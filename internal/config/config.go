package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 WORKDESK_DATABASE_DRIVER
const EnvPrefix = "WORKDESK"

type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Database     DatabaseConfig     `mapstructure:"database" yaml:"database"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring" yaml:"monitoring"`
	Security     SecurityConfig     `mapstructure:"security" yaml:"security"`
	SLA          SLAConfig          `mapstructure:"sla" yaml:"sla"`
	Lifecycle    LifecycleConfig    `mapstructure:"lifecycle" yaml:"lifecycle"`
	Notification NotificationConfig `mapstructure:"notification" yaml:"notification"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	Mode string `mapstructure:"mode" yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // postgres, sqlite
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`       // overrides the fields below when set
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	User            string        `mapstructure:"user" yaml:"user"`
	Password        string        `mapstructure:"password" yaml:"password"`
	Name            string        `mapstructure:"name" yaml:"name"`
	SSLMode         string        `mapstructure:"sslmode" yaml:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// ConnectionString 返回驱动可直接使用的连接串
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	if strings.EqualFold(d.Driver, "sqlite") {
		if d.Name == "" {
			return "workdesk.db"
		}
		return d.Name
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // json, text
	Output     string `mapstructure:"output" yaml:"output"` // stdout, file, both
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`       // MB
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`         // days
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"` // number of backup files
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type MonitoringConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	MetricsPath string        `mapstructure:"metrics_path" yaml:"metrics_path"`
	Tracing     TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// TracingConfig OpenTelemetry 追踪配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`         // OTLP gRPC 端点，例如 http://otel-collector:4317
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`         // 是否使用明文（本地/开发）
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"` // 采样率 0.0~1.0
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
}

type SecurityConfig struct {
	CORS         CORSConfig         `mapstructure:"cors" yaml:"cors"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
}

type RateLimitingConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Burst             int  `mapstructure:"burst" yaml:"burst"`
}

// SLAConfig 工单解决时限（小时）
type SLAConfig struct {
	CriticalHours int `mapstructure:"critical_hours" yaml:"critical_hours"`
	HighHours     int `mapstructure:"high_hours" yaml:"high_hours"`
	MediumHours   int `mapstructure:"medium_hours" yaml:"medium_hours"`
	LowHours      int `mapstructure:"low_hours" yaml:"low_hours"`
}

type LifecycleConfig struct {
	// AllowForce lets privileged callers bypass the work item transition table.
	AllowForce bool `mapstructure:"allow_force" yaml:"allow_force"`
}

type NotificationConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Load 从全局 viper 读取配置，未设置的键使用默认值
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v after registering defaults and env
// overrides on it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults 将 GetDefaultConfig 的值注册为 viper 默认值
func SetDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.file_path", d.Log.FilePath)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("monitoring.enabled", d.Monitoring.Enabled)
	v.SetDefault("monitoring.metrics_path", d.Monitoring.MetricsPath)
	v.SetDefault("monitoring.tracing.enabled", d.Monitoring.Tracing.Enabled)
	v.SetDefault("monitoring.tracing.endpoint", d.Monitoring.Tracing.Endpoint)
	v.SetDefault("monitoring.tracing.insecure", d.Monitoring.Tracing.Insecure)
	v.SetDefault("monitoring.tracing.sample_ratio", d.Monitoring.Tracing.SampleRatio)
	v.SetDefault("monitoring.tracing.service_name", d.Monitoring.Tracing.ServiceName)

	v.SetDefault("security.cors.enabled", d.Security.CORS.Enabled)
	v.SetDefault("security.cors.allowed_origins", d.Security.CORS.AllowedOrigins)
	v.SetDefault("security.cors.allowed_methods", d.Security.CORS.AllowedMethods)
	v.SetDefault("security.cors.allowed_headers", d.Security.CORS.AllowedHeaders)
	v.SetDefault("security.rate_limiting.enabled", d.Security.RateLimiting.Enabled)
	v.SetDefault("security.rate_limiting.requests_per_minute", d.Security.RateLimiting.RequestsPerMinute)
	v.SetDefault("security.rate_limiting.burst", d.Security.RateLimiting.Burst)

	v.SetDefault("sla.critical_hours", d.SLA.CriticalHours)
	v.SetDefault("sla.high_hours", d.SLA.HighHours)
	v.SetDefault("sla.medium_hours", d.SLA.MediumHours)
	v.SetDefault("sla.low_hours", d.SLA.LowHours)

	v.SetDefault("lifecycle.allow_force", d.Lifecycle.AllowForce)
	v.SetDefault("notification.timeout", d.Notification.Timeout)
}

// GetDefaultConfig 返回默认配置
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "password",
			Name:            "workdesk",
			SSLMode:         "disable",
			MaxOpenConns:    50,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			FilePath:   "./logs/workdesk.log",
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
			Compress:   true,
		},
		Monitoring: MonitoringConfig{
			Enabled:     true,
			MetricsPath: "/metrics",
			Tracing: TracingConfig{
				Enabled:     false,
				Endpoint:    "http://localhost:4317",
				Insecure:    true,
				SampleRatio: 0.1,
				ServiceName: "workdesk",
			},
		},
		Security: SecurityConfig{
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
				AllowedHeaders: []string{"*"},
			},
			RateLimiting: RateLimitingConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             20,
			},
		},
		SLA: SLAConfig{
			CriticalHours: 24,
			HighHours:     48,
			MediumHours:   72,
			LowHours:      120,
		},
		Lifecycle: LifecycleConfig{
			AllowForce: false,
		},
		Notification: NotificationConfig{
			Timeout: 5 * time.Second,
		},
	}
}
