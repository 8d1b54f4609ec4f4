package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config mirrors utsref.yaml. Every key can also be set through UTSREF_* env vars.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	CFFEX     CFFEXConfig     `mapstructure:"cffex"`
	Server    ServerConfig    `mapstructure:"server"`
	SpeedTest SpeedTestConfig `mapstructure:"speedtest"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	File     string `mapstructure:"file"`     // empty means stdout only
	MaxSize  int    `mapstructure:"max_size"` // MB
	MaxAge   int    `mapstructure:"max_age"`  // days
	Compress bool   `mapstructure:"compress"`
}

// DatabaseConfig selects the store. Path is used by sqlite, the rest by postgres.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type CFFEXConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Products []string      `mapstructure:"products"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr  string `mapstructure:"addr"`
	Mode  string `mapstructure:"mode"` // gin mode: debug/release/test
	PProf bool   `mapstructure:"pprof"`
}

type SpeedTestConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
}

const envPrefix = "UTSREF"

// SetDefaults registers the built-in values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "db.sqlite3")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "utsref")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("cffex.base_url", "http://www.cffex.com.cn")
	v.SetDefault("cffex.products", []string{"IF", "IO"})
	v.SetDefault("cffex.timeout", 30*time.Second)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.pprof", false)

	v.SetDefault("speedtest.timeout", 3*time.Second)
	v.SetDefault("speedtest.workers", 8)
}

// Load reads .env (if any), the optional config file and UTSREF_* env vars into a Config.
// An explicit path must exist; without one, a missing utsref.yaml is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("utsref")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
