package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/wildlens/internal/core/proximity"
)

// ClientConfig configures the wildlens command-line client.
type ClientConfig struct {
	Host       string          `mapstructure:"host"`
	Port       int             `mapstructure:"port"`
	Timeout    time.Duration   `mapstructure:"timeout"`
	StateDir   string          `mapstructure:"state_dir"`
	Passphrase string          `mapstructure:"passphrase"`
	Proximity  ProximityConfig `mapstructure:"proximity"`
	Log        LogConfig       `mapstructure:"log"`
}

// BaseURL is the backend root, e.g. http://localhost:9874.
func (c ClientConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// LoadClient reads client configuration from .env, an optional
// wildlens.yaml and WILDLENS_CLIENT_* environment variables.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 9874)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("passphrase", "")
	v.SetDefault("proximity.mode", string(proximity.ModeLiteral))
	v.SetDefault("proximity.radius_km", proximity.DefaultRadiusKm)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetConfigName("wildlens")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, "wildlens"))
	}
	_ = v.ReadInConfig()

	v.SetEnvPrefix("WILDLENS_CLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal client config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	var errs []string
	if c.Host == "" {
		errs = append(errs, "host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port must be 1-65535, got %d", c.Port))
	}
	if c.Timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}
	if c.StateDir == "" {
		errs = append(errs, "state_dir is required")
	}
	if _, err := proximity.ParseMode(c.Proximity.Mode); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("client config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "wildlens")
	}
	return ".wildlens"
}
