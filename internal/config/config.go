package config

import (
	"fmt"
	"time"

	"github.com/semmidev/offsite/internal/domain"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Site     SiteConfig     `mapstructure:"site"`
	Database DatabaseConfig `mapstructure:"database"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Settings SettingsConfig `mapstructure:"settings"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Notify   NotifyConfig   `mapstructure:"notify"`

	v *viper.Viper
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type SiteConfig struct {
	Name             string `mapstructure:"name"`
	ConfigPath       string `mapstructure:"config_path"`
	PublicFilesPath  string `mapstructure:"public_files_path"`
	PrivateFilesPath string `mapstructure:"private_files_path"`
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// PostgreSQL specific
	SSLMode string `mapstructure:"ssl_mode"`
}

type BackupConfig struct {
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
	Compress      bool   `mapstructure:"compress"`
	MaxReuseSize  int64  `mapstructure:"max_reuse_size"`
}

// SettingsConfig mirrors the administrator-edited offsite settings.
type SettingsConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Frequency        string `mapstructure:"frequency"`
	EndpointURL      string `mapstructure:"endpoint_url"`
	DefaultContainer string `mapstructure:"default_container"`
	BackupFiles      bool   `mapstructure:"backup_files"`
	NotifyEmail      string `mapstructure:"notify_email"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`

	// AWS S3
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// Google Drive
	CredentialsFile  string `mapstructure:"credentials_file"`
	ClientSecretFile string `mapstructure:"client_secret_file"`
	RefreshToken     string `mapstructure:"refresh_token"`
}

type QueueConfig struct {
	Name       string        `mapstructure:"name"`
	Workers    int           `mapstructure:"workers"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type ScheduleConfig struct {
	Daily   string `mapstructure:"daily"`
	Weekly  string `mapstructure:"weekly"`
	Monthly string `mapstructure:"monthly"`
	Cleanup string `mapstructure:"cleanup"`
}

type NotifyConfig struct {
	Service  string         `mapstructure:"service"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.v = v

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "offsite")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("database.type", "mysql")
	v.SetDefault("database.port", 3306)
	v.SetDefault("backup.retention_days", 7)
	v.SetDefault("backup.compress", true)
	v.SetDefault("backup.max_reuse_size", int64(1<<30))
	v.SetDefault("settings.frequency", string(domain.Daily))
	v.SetDefault("storage.backend", "azure")
	v.SetDefault("queue.name", "long")
	v.SetDefault("queue.workers", 1)
	v.SetDefault("queue.timeout", 1500*time.Second)
	v.SetDefault("queue.max_retries", 2)
	v.SetDefault("schedule.daily", "0 0 0 * * *")
	v.SetDefault("schedule.weekly", "0 0 0 * * 0")
	v.SetDefault("schedule.monthly", "0 0 0 1 * *")
	v.SetDefault("schedule.cleanup", "0 0 3 * * *")
	v.SetDefault("notify.service", "Azure Storage")
	v.SetDefault("notify.smtp.port", 587)
}

func (c *Config) Validate() error {
	if c.Site.Name == "" {
		return fmt.Errorf("site.name is required")
	}
	if c.Site.ConfigPath == "" {
		return fmt.Errorf("site.config_path is required")
	}
	if c.Backup.Path == "" {
		return fmt.Errorf("backup.path is required")
	}

	switch c.Database.Type {
	case "mysql", "mariadb", "postgresql":
	default:
		return fmt.Errorf("database.type %q is not supported", c.Database.Type)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}

	if _, err := c.Settings.ToDomain(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if c.Settings.Enabled {
		if c.Settings.EndpointURL == "" && c.Storage.Backend != "gdrive" {
			return fmt.Errorf("settings.endpoint_url is required when enabled")
		}
		if c.Settings.DefaultContainer == "" {
			return fmt.Errorf("settings.default_container is required when enabled")
		}
	}

	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue.workers must be at least 1")
	}
	if c.Queue.Timeout <= 0 {
		return fmt.Errorf("queue.timeout must be positive")
	}
	if c.Queue.MaxRetries < 0 {
		return fmt.Errorf("queue.max_retries must not be negative")
	}

	return nil
}

func (s SettingsConfig) ToDomain() (domain.Settings, error) {
	freq, err := domain.ParseFrequency(s.Frequency)
	if err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{
		Enabled:          s.Enabled,
		Frequency:        freq,
		EndpointURL:      s.EndpointURL,
		DefaultContainer: s.DefaultContainer,
		BackupFiles:      s.BackupFiles,
		NotifyEmail:      s.NotifyEmail,
	}, nil
}
