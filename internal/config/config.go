// Package config resolves reform settings from flags, REFORM_* environment
// variables and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables: log-level reads REFORM_LOG_LEVEL.
const EnvPrefix = "REFORM"

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Keys shared by flags, environment variables and viper.
const (
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyStore           = "store"
	KeyRedisAddr       = "redis-addr"
	KeyRedisPassword   = "redis-password"
	KeyRedisDB         = "redis-db"
	KeyRedisPrefix     = "redis-prefix"
	KeySessionTTL      = "session-ttl"
	KeySQLitePath      = "sqlite-path"
	KeySessionKey      = "session-key"
	KeyFieldPrefix     = "field-prefix"
	KeyTransitionDelay = "transition-delay"
	KeyPageSize        = "page-size"
	KeyHost            = "host"
	KeyPort            = "port"
	KeyGeminiAPIKey    = "gemini-api-key"
	KeyGeminiModel     = "gemini-model"
	KeyGeminiMaxTokens = "gemini-max-tokens"
)

// Config holds every setting the CLI, HTTP and MCP hosts read.
type Config struct {
	LogLevel  string
	LogFormat string

	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	SessionTTL    time.Duration
	SQLitePath    string

	SessionKey      string
	FieldPrefix     string
	TransitionDelay time.Duration
	PageSize        int

	Host string
	Port int

	GeminiAPIKey    string
	GeminiModel     string
	GeminiMaxTokens int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:        "info",
		LogFormat:       "console",
		Store:           StoreMemory,
		RedisAddr:       "127.0.0.1:6379",
		RedisPrefix:     "reform:",
		SessionTTL:      24 * time.Hour,
		SQLitePath:      "reform.db",
		SessionKey:      "formProgress",
		FieldPrefix:     "set:",
		TransitionDelay: 50 * time.Millisecond,
		PageSize:        5,
		Host:            "127.0.0.1",
		Port:            8080,
		GeminiModel:     "gemini-1.5-flash-latest",
		GeminiMaxTokens: 8192,
	}
}

// RegisterFlags defines one flag per key on fs, defaulted from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(KeyLogLevel, d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String(KeyLogFormat, d.LogFormat, "Log format (console, json)")
	fs.String(KeyStore, d.Store, "Progress store backend (memory, redis, sqlite)")
	fs.String(KeyRedisAddr, d.RedisAddr, "Redis address for the redis store")
	fs.String(KeyRedisPassword, d.RedisPassword, "Redis password")
	fs.Int(KeyRedisDB, d.RedisDB, "Redis database number")
	fs.String(KeyRedisPrefix, d.RedisPrefix, "Key prefix for redis entries")
	fs.Duration(KeySessionTTL, d.SessionTTL, "Lifetime of saved progress in redis (0 keeps it forever)")
	fs.String(KeySQLitePath, d.SQLitePath, "Database file for the sqlite store")
	fs.String(KeySessionKey, d.SessionKey, "Storage key for saved progress")
	fs.String(KeyFieldPrefix, d.FieldPrefix, "Attribute prefix for declarative field sets")
	fs.Duration(KeyTransitionDelay, d.TransitionDelay, "Delay between leaving and entering a page")
	fs.Int(KeyPageSize, d.PageSize, "Fields per page when building a form from a document")
	fs.String(KeyHost, d.Host, "HTTP listen host")
	fs.Int(KeyPort, d.Port, "HTTP listen port")
	fs.String(KeyGeminiAPIKey, d.GeminiAPIKey, "Gemini API key used for question generation")
	fs.String(KeyGeminiModel, d.GeminiModel, "Gemini model name")
	fs.Int(KeyGeminiMaxTokens, d.GeminiMaxTokens, "Maximum output tokens per Gemini reply")
}

// Load resolves a Config. Flags set on the command line win over environment
// variables, which win over defaults. fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyStore, d.Store)
	v.SetDefault(KeyRedisAddr, d.RedisAddr)
	v.SetDefault(KeyRedisPassword, d.RedisPassword)
	v.SetDefault(KeyRedisDB, d.RedisDB)
	v.SetDefault(KeyRedisPrefix, d.RedisPrefix)
	v.SetDefault(KeySessionTTL, d.SessionTTL)
	v.SetDefault(KeySQLitePath, d.SQLitePath)
	v.SetDefault(KeySessionKey, d.SessionKey)
	v.SetDefault(KeyFieldPrefix, d.FieldPrefix)
	v.SetDefault(KeyTransitionDelay, d.TransitionDelay)
	v.SetDefault(KeyPageSize, d.PageSize)
	v.SetDefault(KeyHost, d.Host)
	v.SetDefault(KeyPort, d.Port)
	v.SetDefault(KeyGeminiAPIKey, d.GeminiAPIKey)
	v.SetDefault(KeyGeminiModel, d.GeminiModel)
	v.SetDefault(KeyGeminiMaxTokens, d.GeminiMaxTokens)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	cfg := Config{
		LogLevel:        strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:       strings.ToLower(v.GetString(KeyLogFormat)),
		Store:           strings.ToLower(v.GetString(KeyStore)),
		RedisAddr:       v.GetString(KeyRedisAddr),
		RedisPassword:   v.GetString(KeyRedisPassword),
		RedisDB:         v.GetInt(KeyRedisDB),
		RedisPrefix:     v.GetString(KeyRedisPrefix),
		SessionTTL:      v.GetDuration(KeySessionTTL),
		SQLitePath:      v.GetString(KeySQLitePath),
		SessionKey:      v.GetString(KeySessionKey),
		FieldPrefix:     v.GetString(KeyFieldPrefix),
		TransitionDelay: v.GetDuration(KeyTransitionDelay),
		PageSize:        v.GetInt(KeyPageSize),
		Host:            v.GetString(KeyHost),
		Port:            v.GetInt(KeyPort),
		GeminiAPIKey:    v.GetString(KeyGeminiAPIKey),
		GeminiModel:     v.GetString(KeyGeminiModel),
		GeminiMaxTokens: v.GetInt(KeyGeminiMaxTokens),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.LogFormat)
	}
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("redis store requires redis-addr")
		}
		if c.RedisDB < 0 {
			return errors.New("redis-db must not be negative")
		}
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("sqlite store requires sqlite-path")
		}
	default:
		return fmt.Errorf("invalid store: %s (must be one of: memory, redis, sqlite)", c.Store)
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.PageSize < 1 {
		return errors.New("page-size must be positive")
	}
	if c.SessionTTL < 0 {
		return errors.New("session-ttl must not be negative")
	}
	if c.TransitionDelay < 0 {
		return errors.New("transition-delay must not be negative")
	}
	if strings.TrimSpace(c.SessionKey) == "" {
		return errors.New("session-key cannot be empty")
	}
	if strings.TrimSpace(c.FieldPrefix) == "" {
		return errors.New("field-prefix cannot be empty")
	}
	if c.GeminiMaxTokens < 1 {
		return errors.New("gemini-max-tokens must be positive")
	}
	return nil
}

// Address returns the HTTP listen address as host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsDebug reports whether debug logging is enabled.
func (c Config) IsDebug() bool {
	return c.LogLevel == "debug"
}
