package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "TASKBOARD"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr           string
		AllowedOrigins []string
		// TrustedProxies lists the proxies whose X-Forwarded-For is believed. Empty trusts none.
		TrustedProxies []string
	}
	Database struct {
		Path string
	}
	Auth struct {
		CookieName       string
		CookieDomain     string
		SecureCookie     bool
		JWTSecret        string
		TokenTTLMinutes  int
		MaxLoginAttempts int
		LoginWindow      time.Duration
		LockDuration     time.Duration
	}
	Session struct {
		Backend       string
		RedisURL      string
		Lifetime      time.Duration
		IdleTimeout   time.Duration
		SweepInterval time.Duration
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
		URLTTL    time.Duration
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads .env, then environment variables and an optional config file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.allowedorigins", []string{"http://localhost:5173"})
	v.SetDefault("server.trustedproxies", []string{})
	v.SetDefault("database.path", "data/taskboard.db")

	v.SetDefault("auth.cookiename", "taskboard_session")
	v.SetDefault("auth.cookiedomain", "")
	v.SetDefault("auth.securecookie", false)
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 60)
	v.SetDefault("auth.maxloginattempts", 5)
	v.SetDefault("auth.loginwindow", 15*time.Minute)
	v.SetDefault("auth.lockduration", 10*time.Minute)

	v.SetDefault("session.backend", "sqlite")
	v.SetDefault("session.redisurl", "")
	v.SetDefault("session.lifetime", 12*time.Hour)
	v.SetDefault("session.idletimeout", 30*time.Minute)
	v.SetDefault("session.sweepinterval", 10*time.Minute)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "taskboard-exports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.urlttl", 15*time.Minute)
	v.SetDefault("aws.profile", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Server.Addr) == "" {
		problems = append(problems, "server.addr is required")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		problems = append(problems, "database.path is required")
	}
	if c.Auth.SecureCookie && len(c.Server.AllowedOrigins) == 0 {
		problems = append(problems, "server.allowedorigins must list origins when auth.securecookie is on")
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		problems = append(problems, "auth.cookiename is required")
	}
	if s := c.Auth.JWTSecret; s != "" && len(s) < 32 {
		problems = append(problems, "auth.jwtsecret must be at least 32 bytes")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		problems = append(problems, "auth.tokenttlminutes must be positive")
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		problems = append(problems, "auth.maxloginattempts must be positive")
	}

	switch c.Session.Backend {
	case "sqlite":
	case "redis":
		if strings.TrimSpace(c.Session.RedisURL) == "" {
			problems = append(problems, "session.redisurl is required for the redis backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("session.backend %q is not one of sqlite, redis", c.Session.Backend))
	}
	if c.Session.Lifetime <= 0 {
		problems = append(problems, "session.lifetime must be positive")
	}
	if c.Session.IdleTimeout < 0 {
		problems = append(problems, "session.idletimeout must not be negative")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level: %v", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format %q is not one of text, json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// NewLogger builds the process logger from the log section.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
