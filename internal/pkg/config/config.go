package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/wildlens/internal/core/proximity"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	GenAI     GenAIConfig     `mapstructure:"genai"`
	Google    GoogleConfig    `mapstructure:"google"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Images    ImagesConfig    `mapstructure:"images"`
	Proximity ProximityConfig `mapstructure:"proximity"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	BodyLimitMB  int    `mapstructure:"body_limit_mb"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// GenAIConfig configures the Gemini models used for identification and search.
// An empty APIKey disables both features.
type GenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	VisionModel    string `mapstructure:"vision_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type GoogleConfig struct {
	UserInfoURL string `mapstructure:"userinfo_url"`
}

type AuthConfig struct {
	SessionTTLHours int `mapstructure:"session_ttl_hours"`
}

type ImagesConfig struct {
	// PublicBaseURL prefixes stored image paths, e.g. http://10.0.0.5:9874.
	PublicBaseURL string `mapstructure:"public_base_url"`
	MaxSizeMB     int    `mapstructure:"max_size_mb"`
}

type ProximityConfig struct {
	Mode     string  `mapstructure:"mode"`
	RadiusKm float64 `mapstructure:"radius_km"`
}

// Matcher builds the proximity matcher this configuration describes.
func (p ProximityConfig) Matcher() (proximity.Matcher, error) {
	mode, err := proximity.ParseMode(p.Mode)
	if err != nil {
		return proximity.Matcher{}, err
	}
	return proximity.NewMatcher(mode, p.RadiusKm), nil
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 9874)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.body_limit_mb", 12)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wildlens")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "wildlens")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("genai.api_key", "")
	v.SetDefault("genai.vision_model", "gemini-2.0-flash")
	v.SetDefault("genai.embedding_model", "gemini-embedding-001")
	v.SetDefault("google.userinfo_url", "https://www.googleapis.com/oauth2/v3/userinfo")
	v.SetDefault("auth.session_ttl_hours", 24*30)
	v.SetDefault("images.public_base_url", "")
	v.SetDefault("images.max_size_mb", 8)
	v.SetDefault("proximity.mode", string(proximity.ModeLiteral))
	v.SetDefault("proximity.radius_km", proximity.DefaultRadiusKm)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: WILDLENS_DATABASE_HOST → database.host
	v.SetEnvPrefix("WILDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, "server.body_limit_mb must be positive")
	}
	if c.Auth.SessionTTLHours <= 0 {
		errs = append(errs, "auth.session_ttl_hours must be positive")
	}
	if c.Images.MaxSizeMB <= 0 {
		errs = append(errs, "images.max_size_mb must be positive")
	}
	if _, err := proximity.ParseMode(c.Proximity.Mode); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Proximity.RadiusKm < 0 {
		errs = append(errs, "proximity.radius_km must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
