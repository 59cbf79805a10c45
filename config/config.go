package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is where the JSON config file is looked up when no path is given.
const DefaultPath = "config/config.json"

// AppConfig holds file and environment driven configuration values.
// Secrets never have defaults inside code and must be provided via config file or the environment.
type AppConfig struct {
	AppPort         string
	JWTSecret       string
	TokenTTLMinutes int
	AllowedOrigins  []string
	CacheTTLSeconds int
	// Database
	DBDriver       string
	DatabaseURI    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxOpenConns int
	DBMaxIdleConns int
	// Redis backs token revocation and the post cache when enabled
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// TokenTTL returns the lifetime of issued access tokens.
func (c AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// CacheTTL returns how long cached post responses live.
func (c AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// envBindings maps grouped config keys onto their environment variable overrides.
var envBindings = map[string]string{
	"app.port":                "APP_PORT",
	"app.jwt_secret":          "JWT_SECRET",
	"app.token_ttl_minutes":   "TOKEN_TTL_MINUTES",
	"app.allowed_origins":     "CORS_ALLOWED_ORIGINS",
	"app.cache_ttl_seconds":   "CACHE_TTL_SECONDS",
	"database.driver":         "DB_DRIVER",
	"database.uri":            "DATABASE_URI",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.name":           "DB_NAME",
	"database.max_open_conns": "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns": "DB_MAX_IDLE_CONNS",
	"redis.enabled":           "REDIS_ENABLED",
	"redis.host":              "REDIS_HOST",
	"redis.port":              "REDIS_PORT",
	"redis.db":                "REDIS_DB",
	"redis.password":          "REDIS_PASSWORD",
	"gin.mode":                "GIN_MODE",
	"gin.log_path":            "GIN_LOG_PATH",
	"log.level":               "LOG_LEVEL",
	"log.path":                "LOG_PATH",
	"log.max_size_mb":         "LOG_MAX_SIZE_MB",
	"log.max_backups":         "LOG_MAX_BACKUPS",
	"log.max_age_days":        "LOG_MAX_AGE_DAYS",
	"log.compress":            "LOG_COMPRESS",
}

// Load reads configuration with precedence: defaults -> JSON file at path -> environment.
// A missing file is not an error; an unreadable or invalid one is.
func Load(path string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigType("json")
	applyDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := AppConfig{
		AppPort:         v.GetString("app.port"),
		JWTSecret:       v.GetString("app.jwt_secret"),
		TokenTTLMinutes: v.GetInt("app.token_ttl_minutes"),
		AllowedOrigins:  readList(v, "app.allowed_origins"),
		CacheTTLSeconds: v.GetInt("app.cache_ttl_seconds"),
		DBDriver:        strings.ToLower(v.GetString("database.driver")),
		DatabaseURI:     v.GetString("database.uri"),
		DBHost:          v.GetString("database.host"),
		DBPort:          v.GetString("database.port"),
		DBUser:          v.GetString("database.user"),
		DBPassword:      v.GetString("database.password"),
		DBName:          v.GetString("database.name"),
		DBMaxOpenConns:  v.GetInt("database.max_open_conns"),
		DBMaxIdleConns:  v.GetInt("database.max_idle_conns"),
		RedisEnabled:    v.GetBool("redis.enabled"),
		RedisHost:       v.GetString("redis.host"),
		RedisPort:       v.GetInt("redis.port"),
		RedisDB:         v.GetInt("redis.db"),
		RedisPassword:   v.GetString("redis.password"),
		GinMode:         v.GetString("gin.mode"),
		GinPath:         v.GetString("gin.log_path"),
		LogLevel:        v.GetString("log.level"),
		LogPath:         v.GetString("log.path"),
		LogMaxSizeMB:    v.GetInt("log.max_size_mb"),
		LogMaxBackups:   v.GetInt("log.max_backups"),
		LogMaxAgeDays:   v.GetInt("log.max_age_days"),
		LogCompress:     v.GetBool("log.compress"),
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks the values the server cannot start without.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in config file or environment")
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}
	if c.TokenTTLMinutes <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

// applyDefaults sets sane defaults for values absent from file and environment.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.token_ttl_minutes", 60)
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("app.cache_ttl_seconds", 3600)
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "miniblog")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.log_path", "logs/go_gin.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
}

// readList accepts either a JSON array or a comma separated string (as env vars provide).
func readList(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		return splitAndTrim(raw)
	}
	return v.GetStringSlice(key)
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
