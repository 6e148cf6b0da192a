package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const EnvPrefix = "ALERTD"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	// Password protects the pages and the API when set.
	Password string `mapstructure:"password"`
}

type StorageConfig struct {
	FilePath string `mapstructure:"file_path"`
}

type NotifyConfig struct {
	Title           string        `mapstructure:"title"`
	Desktop         bool          `mapstructure:"desktop"`
	Timeout         time.Duration `mapstructure:"timeout"`
	PushMinInterval time.Duration `mapstructure:"push_min_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.password", "")
	v.SetDefault("storage.file_path", "data/alert.json")
	v.SetDefault("notify.title", "Alert")
	v.SetDefault("notify.desktop", true)
	v.SetDefault("notify.timeout", "10s")
	v.SetDefault("notify.push_min_interval", "250ms")
	v.SetDefault("log.level", "info")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the YAML file at path. A missing file is not an error:
// defaults and ALERTD_* environment variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := newViper(path)
	if err := read(v); err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch reloads the file whenever it changes and hands valid configs to fn.
// Invalid edits are logged and ignored.
func Watch(path string, fn func(*Config)) {
	if _, err := os.Stat(path); err != nil {
		slog.Info("Config file not found, watch disabled", "file", path)
		return
	}
	v := newViper(path)
	if err := read(v); err != nil {
		slog.Warn("Config watch disabled", "error", err)
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			slog.Error("Ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		slog.Info("Config reloaded", "file", e.Name, "op", e.Op.String())
		fn(cfg)
	})
	v.WatchConfig()
}

func read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Storage.FilePath == "" {
		return errors.New("storage.file_path is required")
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("notify.timeout must be > 0, got %s", c.Notify.Timeout)
	}
	if c.Notify.PushMinInterval < 0 {
		return fmt.Errorf("notify.push_min_interval must be >= 0, got %s", c.Notify.PushMinInterval)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps log.level onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: invalid level %q", s)
	}
	return l, nil
}
