package config

import (
	"github.com/maxviazov/member-search-service/internal/logger"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	Query    QueryConfig         `mapstructure:"query"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"gt=0,lte=65535"`

	// Timeouts are in seconds; a zero request timeout disables it.
	RequestTimeout  int      `mapstructure:"request_timeout" validate:"gte=0"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

// PostgresConfig holds connection and pool tuning; durations are in seconds.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"gte=0"`
	MinConns          int32  `mapstructure:"min_conns" validate:"gte=0"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime" validate:"gte=0"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time" validate:"gte=0"`
	HealthCheckPeriod int    `mapstructure:"health_check_period" validate:"gte=0"`
	AutoMigrate       bool   `mapstructure:"auto_migrate"`
}

// QueryConfig tunes paged searches.
type QueryConfig struct {
	CountPolicy     string `mapstructure:"count_policy" validate:"omitempty,oneof=always first_page any_page"`
	ConcurrentCount bool   `mapstructure:"concurrent_count"`
	SnapshotReads   bool   `mapstructure:"snapshot_reads"`
	DefaultPageSize int    `mapstructure:"default_page_size" validate:"gt=0"`
	MaxPageSize     int    `mapstructure:"max_page_size" validate:"gtefield=DefaultPageSize"`
}
