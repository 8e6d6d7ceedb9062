package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	API        *APIConfig        `mapstructure:"api"`
	Gin        *GinConfig        `mapstructure:"gin"`
	Log        *LogConfig        `mapstructure:"log"`
	Postgres   *PostgresConfig   `mapstructure:"postgres"`
	Innopoints *InnopointsConfig `mapstructure:"innopoints"`

	v *viper.Viper
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

type InnopointsConfig struct {
	PointsPerHour int `mapstructure:"points_per_hour"`
	// ReminderSchedule is a cron spec; empty disables feedback reminders.
	ReminderSchedule string `mapstructure:"reminder_schedule"`
}

// Load reads the YAML file at path. Every key can be overridden by an
// environment variable named after it, e.g. API_PORT or POSTGRES_HOST.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("innopoints.points_per_hour", 70)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	conf.v = v

	return conf, nil
}

// Watch calls fn with the re-read configuration whenever the file changes.
// Only settings that are safe to change at runtime should be applied by fn.
func (c *AppConfig) Watch(fn func(conf *AppConfig)) {
	c.v.OnConfigChange(func(e fsnotify.Event) {
		conf, err := unmarshal(c.v)
		if err != nil {
			return
		}
		fn(conf)
	})
	c.v.WatchConfig()
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{
		API:        &APIConfig{},
		Gin:        &GinConfig{},
		Log:        &LogConfig{},
		Postgres:   &PostgresConfig{},
		Innopoints: &InnopointsConfig{},
	}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	return conf, nil
}
