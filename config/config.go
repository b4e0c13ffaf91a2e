package config

import (
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	KeyURLsMaxSize   = "sitemap.urls-max-size"
	KeyXSLTFileName  = "sitemap.xslt_file_name"
	KeyFormat        = "sitemap.format"
	KeyOutputPath    = "sitemap.output_path"
	KeyBackup        = "sitemap.backup"
	KeyRegenInterval = "sitemap.regenerate_interval"
)

type Config struct {
	Database struct {
		Driver string
		URL    string
	}
	Server struct {
		Port int
	}
	Logging struct {
		Level  string
		Format string
		Dir    string
	}
	Sitemap struct {
		Format             string
		OutputPath         string `mapstructure:"output_path"`
		Backup             bool
		RegenerateInterval string `mapstructure:"regenerate_interval"`
	}

	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "sitemap.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "pretty")
	v.SetDefault("logging.dir", "logs")

	v.SetDefault(KeyURLsMaxSize, models.DefaultMaxSize)
	v.SetDefault(KeyXSLTFileName, "")
	v.SetDefault(KeyFormat, string(models.FormatXML))
	v.SetDefault(KeyOutputPath, "public/sitemap.xml")
	v.SetDefault(KeyBackup, true)
	v.SetDefault(KeyRegenInterval, "1h")
}

// LoadConfig reads config.yaml from "." or "./config", falling back to
// defaults when no file exists. KBSITEMAP_* environment variables override
// file values.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load is LoadConfig with an explicit config file. An empty path searches
// the default locations.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix("KBSITEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

// FromViper builds a Config around an existing viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.v = v

	if err := config.Settings().Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Watch re-reads the config file on change. Settings read the live values,
// so a new max size applies on the next chunk or overflow check. onError is
// called when the changed file holds an invalid value.
func (c *Config) Watch(onError func(error)) {
	c.v.OnConfigChange(func(fsnotify.Event) {
		if err := c.Settings().Validate(); err != nil && onError != nil {
			onError(err)
		}
	})
	c.v.WatchConfig()
}

func (c *Config) Settings() *Settings {
	return &Settings{v: c.v}
}

func (c *Config) GetRegenerateDuration() time.Duration {
	duration, err := time.ParseDuration(c.Sitemap.RegenerateInterval)
	if err != nil {
		return time.Hour
	}
	return duration
}

// Settings exposes the sitemap keys, read from viper at call time.
type Settings struct {
	v *viper.Viper
}

// NewSettings wraps a viper instance.
func NewSettings(v *viper.Viper) *Settings {
	return &Settings{v: v}
}

// MaxSize returns sitemap.urls-max-size. Invalid values, which Validate
// reports, fall back to the default.
func (s *Settings) MaxSize() int {
	n, err := s.maxSize()
	if err != nil {
		return models.DefaultMaxSize
	}
	return n
}

func (s *Settings) maxSize() (int, error) {
	raw := s.v.Get(KeyURLsMaxSize)
	if raw == nil {
		return models.DefaultMaxSize, nil
	}

	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, &models.ConfigurationError{Key: KeyURLsMaxSize, Value: raw, Err: err}
	}
	if n <= 0 {
		return 0, &models.ConfigurationError{Key: KeyURLsMaxSize, Value: raw, Err: errors.New("must be positive")}
	}
	return n, nil
}

// StylesheetURL returns sitemap.xslt_file_name, or "" when unset.
func (s *Settings) StylesheetURL() string {
	return strings.TrimSpace(s.v.GetString(KeyXSLTFileName))
}

// Validate reports a *models.ConfigurationError for malformed values.
func (s *Settings) Validate() error {
	_, err := s.maxSize()
	return err
}
