package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Mail     MailConfig     `yaml:"mail"`
	Frontend FrontendConfig `yaml:"frontend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"          env:"SERVER_ADDR"          env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  env:"SERVER_READ_TIMEOUT"  env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH" env-default:"zaloga.sqlite3"`
}

// AuthConfig holds token settings. An empty secret is replaced with a random
// one at startup, invalidating tokens on restart.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET_KEY"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"JWT_TOKEN_TTL" env-default:"1h"`
}

// MailConfig holds outbound SMTP settings. Delivery is disabled (logged only)
// when Server or Username is empty.
type MailConfig struct {
	Server   string `yaml:"server"   env:"MAIL_SERVER"`
	Port     int    `yaml:"port"     env:"MAIL_PORT"     env-default:"587"`
	Username string `yaml:"username" env:"MAIL_USERNAME"`
	Password string `yaml:"password" env:"MAIL_PASSWORD"`
	Sender   string `yaml:"sender"   env:"MAIL_DEFAULT_SENDER"`
	UseTLS   bool   `yaml:"use_tls"  env:"MAIL_USE_TLS"  env-default:"true"`
}

// FrontendConfig holds the base URL used in invitation and reset links.
type FrontendConfig struct {
	URL string `yaml:"url" env:"FRONTEND_URL" env-default:"http://localhost:5173"`
}

// Validate checks settings that cannot be expressed via tags.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("mail port %d out of range", c.Mail.Port)
	}
	return nil
}
