package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Supported backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SessionStoreDB    = "db"
	SessionStoreRedis = "redis"
)

// EnvPrefix namespaces environment overrides, e.g. SESSION_AUTH_SESSION_SECRET.
const EnvPrefix = "SESSION_AUTH"

var (
	ErrMissingSecret = errors.New("session.secret is required")
	ErrUnknownDriver = errors.New("unknown db.driver")
	ErrUnknownStore  = errors.New("unknown session.store")
)

// Config is the fully resolved application configuration.
type Config struct {
	Port string

	Log struct {
		Level  string
		Format string
	}

	DB struct {
		Driver string
		DSN    string
	}

	Session struct {
		Secret          string
		CookieName      string
		Secure          bool
		IdleTimeout     time.Duration
		MaxLifetime     time.Duration
		Store           string
		CleanupInterval time.Duration
	}

	Redis struct {
		URL string
	}

	Auth struct {
		BcryptCost int
	}

	CORS struct {
		AllowedOrigins []string
	}

	Server struct {
		ReadHeaderTimeout time.Duration
		WriteTimeout      time.Duration
		IdleTimeout       time.Duration
		ShutdownTimeout   time.Duration
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "app.db")
	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("session.max_lifetime", 12*time.Hour)
	v.SetDefault("session.store", SessionStoreDB)
	v.SetDefault("session.cleanup_interval", 5*time.Minute)
	v.SetDefault("redis.url", "redis://127.0.0.1:6379/0")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// New returns a viper instance with defaults and env overrides wired up.
// configFile may be empty, in which case configs/config.yml is searched.
func New(configFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration and validates all of it.
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := Read(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read resolves .env (if present), the config file (if present) and the
// environment without validating the result.
func Read(v *viper.Viper) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}
	cfg.Port = v.GetString("port")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(v.GetString("db.driver")))
	cfg.DB.DSN = v.GetString("db.dsn")
	if cfg.DB.DSN == "" && cfg.DB.Driver == DriverSQLite {
		cfg.DB.DSN = v.GetString("db.path")
	}

	cfg.Session.Secret = v.GetString("session.secret")
	cfg.Session.CookieName = v.GetString("session.cookie_name")
	cfg.Session.Secure = v.GetBool("session.secure")
	cfg.Session.IdleTimeout = v.GetDuration("session.idle_timeout")
	cfg.Session.MaxLifetime = v.GetDuration("session.max_lifetime")
	cfg.Session.Store = strings.ToLower(strings.TrimSpace(v.GetString("session.store")))
	cfg.Session.CleanupInterval = v.GetDuration("session.cleanup_interval")

	cfg.Redis.URL = v.GetString("redis.url")
	cfg.Auth.BcryptCost = v.GetInt("auth.bcrypt_cost")
	cfg.CORS.AllowedOrigins = v.GetStringSlice("cors.allowed_origins")

	cfg.Server.ReadHeaderTimeout = v.GetDuration("server.read_header_timeout")
	cfg.Server.WriteTimeout = v.GetDuration("server.write_timeout")
	cfg.Server.IdleTimeout = v.GetDuration("server.idle_timeout")
	cfg.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")
	return cfg
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return ErrMissingSecret
	}
	if err := c.ValidateDB(); err != nil {
		return err
	}
	switch c.Session.Store {
	case SessionStoreDB, SessionStoreRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Session.Store)
	}
	if c.Session.Store == SessionStoreRedis && c.Redis.URL == "" {
		return errors.New("redis.url is required when session.store=redis")
	}
	// 0 disables the absolute lifetime; only the idle timeout applies
	if c.Session.MaxLifetime < 0 {
		return errors.New("session.max_lifetime must not be negative")
	}
	if c.Session.IdleTimeout < 0 {
		return errors.New("session.idle_timeout must not be negative")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// ValidateDB checks only the database settings; enough for the migrate command.
func (c *Config) ValidateDB() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required for driver %q", c.DB.Driver)
	}
	return nil
}
