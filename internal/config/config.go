// Package config holds the server settings and their defaults, merged from
// flags, NIFTY_* environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes environment variables, e.g. NIFTY_MPD_HOST.
const EnvPrefix = "NIFTY"

// Renderers selectable with the renderer key.
const (
	RendererMPD     = "mpd"
	RendererSpeaker = "speaker"
)

// Config is the complete server configuration.
type Config struct {
	Port      string `mapstructure:"port"`
	PublicURL string `mapstructure:"public_url"`
	StaticDir string `mapstructure:"static"`
	Debug     bool   `mapstructure:"debug"`

	Renderer string    `mapstructure:"renderer"`
	MPD      MPDConfig `mapstructure:"mpd"`

	ImportWorkers     int           `mapstructure:"import_workers"`
	MaxUploadMB       int64         `mapstructure:"max_upload_mb"`
	CoverSize         int           `mapstructure:"cover_size"`
	MaxRemoteClients  int           `mapstructure:"max_remote_clients"`
	BroadcastDebounce time.Duration `mapstructure:"broadcast_debounce"`
}

// MPDConfig locates the MPD daemon.
type MPDConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

// Defaults lists every key with its default value.
var Defaults = map[string]any{
	"port":               "3001",
	"public_url":         "",
	"static":             "",
	"debug":              false,
	"renderer":           RendererMPD,
	"mpd.host":           "localhost",
	"mpd.port":           6600,
	"mpd.password":       "",
	"import_workers":     4,
	"max_upload_mb":      512,
	"cover_size":         500,
	"max_remote_clients": 0,
	"broadcast_debounce": 50 * time.Millisecond,
}

// Default returns the configuration with every default applied, ignoring
// the environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	c, err := decode(v)
	if err != nil {
		panic(err)
	}
	return c
}

func setDefaults(v *viper.Viper) {
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
}

// Load reads configuration from v, which may carry bound flags, merged with
// the environment and file, when file is not empty.
func Load(v *viper.Viper, file string) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	c, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if c.PublicURL == "" {
		c.PublicURL = "http://127.0.0.1:" + c.Port
	}
	c.PublicURL = strings.TrimSuffix(c.PublicURL, "/")
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Port == "":
		return fmt.Errorf("%w: port is required", ErrInvalid)
	case c.Renderer != RendererMPD && c.Renderer != RendererSpeaker:
		return fmt.Errorf("%w: unknown renderer %q", ErrInvalid, c.Renderer)
	case c.Renderer == RendererMPD && c.MPD.Host == "":
		return fmt.Errorf("%w: mpd.host is required", ErrInvalid)
	case c.Renderer == RendererMPD && (c.MPD.Port <= 0 || c.MPD.Port > 65535):
		return fmt.Errorf("%w: mpd.port %d out of range", ErrInvalid, c.MPD.Port)
	case c.ImportWorkers < 1:
		return fmt.Errorf("%w: import_workers must be positive", ErrInvalid)
	case c.MaxUploadMB < 1:
		return fmt.Errorf("%w: max_upload_mb must be positive", ErrInvalid)
	case c.CoverSize < 16:
		return fmt.Errorf("%w: cover_size must be at least 16", ErrInvalid)
	case c.MaxRemoteClients < 0:
		return fmt.Errorf("%w: max_remote_clients must not be negative", ErrInvalid)
	case c.BroadcastDebounce < 0:
		return fmt.Errorf("%w: broadcast_debounce must not be negative", ErrInvalid)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
