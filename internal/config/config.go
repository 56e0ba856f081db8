package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeoutSeconds bounds graceful HTTP shutdown.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gt=0"`
	MigrateOnStart         bool   `mapstructure:"migrate_on_start"`
}

// TaskConfig contains settings for the background task coordinator.
type TaskConfig struct {
	// PoolSize is the number of pool workers shared by all runs.
	PoolSize int `mapstructure:"pool_size" validate:"gt=0"`
	// CommandBuffer is the capacity of the coordinator's command channel.
	CommandBuffer int `mapstructure:"command_buffer" validate:"gt=0"`
	// RunChannelBuffer is the capacity of each run's message channel.
	RunChannelBuffer int `mapstructure:"run_channel_buffer" validate:"gt=0"`
	// DefaultMode is the orchestration preset used when a request names none.
	DefaultMode string `mapstructure:"default_mode" validate:"required,oneof=linear parallel faster extreme"`
	// ScriptsDir holds *.sql files exposed as script actions. Empty disables them.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// MediaRoot restricts media actions to files under this directory. Empty allows any path.
	MediaRoot string `mapstructure:"media_root"`
	// StartupActions are started once the server is up.
	StartupActions []string `mapstructure:"startup_actions"`
}
