package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Scriptures ScripturesConfig `mapstructure:"scriptures"`
	Map        MapConfig        `mapstructure:"map"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
	AllowAll bool   `mapstructure:"allow_all"`
}

// ScripturesConfig holds the scriptures data source configuration
type ScripturesConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	BooksPath            string `mapstructure:"books_path"`
	VolumesPath          string `mapstructure:"volumes_path"`
	ChapterPath          string `mapstructure:"chapter_path"`
	ChapterOptions       string `mapstructure:"chapter_options"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
}

// MapConfig holds map widget polling and viewport defaults
type MapConfig struct {
	InitialDelayMs   int     `mapstructure:"initial_delay_ms"`
	CeilingMs        int     `mapstructure:"ceiling_ms"`
	DefaultLatitude  float64 `mapstructure:"default_latitude"`
	DefaultLongitude float64 `mapstructure:"default_longitude"`
	DefaultZoom      int     `mapstructure:"default_zoom"`
	SingleMarkerZoom int     `mapstructure:"single_marker_zoom"`
}

// InitialDelay is the first readiness retry delay.
func (m MapConfig) InitialDelay() time.Duration {
	return time.Duration(m.InitialDelayMs) * time.Millisecond
}

// Ceiling is the largest retry delay the poller will still schedule.
func (m MapConfig) Ceiling() time.Duration {
	return time.Duration(m.CeilingMs) * time.Millisecond
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN builds the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	Session  string `mapstructure:"session"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from config.yaml in the current directory with
// environment variable overrides.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads config.yaml from dir. A missing file is not an error: the
// defaults (and environment overrides) are used instead.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Warnf("config.yaml not found in %s, using defaults", dir)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.Map.InitialDelayMs <= 0 {
		return nil, fmt.Errorf("map.initial_delay_ms must be positive, got %d", config.Map.InitialDelayMs)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.allow_all", false)

	v.SetDefault("scriptures.base_url", "https://scriptures.byu.edu/mapscrip")
	v.SetDefault("scriptures.books_path", "/model/books.php")
	v.SetDefault("scriptures.volumes_path", "/model/volumes.php")
	v.SetDefault("scriptures.chapter_path", "/mapgetscrip.php")
	v.SetDefault("scriptures.chapter_options", "verses&jst=no")
	v.SetDefault("scriptures.timeout", 30)
	v.SetDefault("scriptures.max_retries", 3)
	v.SetDefault("scriptures.max_requests_per_second", 10)

	v.SetDefault("map.initial_delay_ms", 500)
	v.SetDefault("map.ceiling_ms", 5000)
	v.SetDefault("map.default_latitude", 31.7683)
	v.SetDefault("map.default_longitude", 35.2137)
	v.SetDefault("map.default_zoom", 8)
	v.SetDefault("map.single_marker_zoom", 12)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "scriptures")
	v.SetDefault("database.user", "scriptures_user")
	v.SetDefault("database.password", "scriptures_pass")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.session", "default")

	v.SetDefault("log.level", "info")
}
