// Package config loads libctl settings from YAML and LIBCTL_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all client configuration.
type Config struct {
	Server ServerConfig
	Cache  CacheConfig
	Logger LoggerConfig
	Save   SaveConfig
}

type ServerConfig struct {
	URL        string
	Token      string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

type CacheConfig struct {
	Provider  string // memory | ristretto | bigcache | redis
	Codec     string // json | cbor | msgpack
	Namespace string
	TTL       time.Duration
	StaleTime time.Duration
	MaxItems  int
	MaxDecode int
	RedisAddr string
	Disabled  bool
}

type LoggerConfig struct {
	Level    string
	Encoding string // console | json
}

type SaveConfig struct {
	AcceptStatusMin int
	AcceptStatusMax int
	UseTagCatalog   bool
}

const envPrefix = "LIBCTL"

// Load reads path (optional; "" searches ./libctl.yaml and ./config/) and
// applies LIBCTL_* overrides, e.g. LIBCTL_SERVER_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("libctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Server.URL = v.GetString("server.url")
	cfg.Server.Token = v.GetString("server.token")
	cfg.Server.Timeout = v.GetDuration("server.timeout")
	cfg.Server.RatePerSec = v.GetFloat64("server.rate_per_sec")
	cfg.Server.Burst = v.GetInt("server.burst")

	cfg.Cache.Provider = v.GetString("cache.provider")
	cfg.Cache.Codec = v.GetString("cache.codec")
	cfg.Cache.Namespace = v.GetString("cache.namespace")
	cfg.Cache.TTL = v.GetDuration("cache.ttl")
	cfg.Cache.StaleTime = v.GetDuration("cache.stale_time")
	cfg.Cache.MaxItems = v.GetInt("cache.max_items")
	cfg.Cache.MaxDecode = v.GetInt("cache.max_decode")
	cfg.Cache.RedisAddr = v.GetString("cache.redis_addr")
	cfg.Cache.Disabled = v.GetBool("cache.disabled")

	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Encoding = v.GetString("logger.encoding")

	cfg.Save.AcceptStatusMin = v.GetInt("save.accept_status_min")
	cfg.Save.AcceptStatusMax = v.GetInt("save.accept_status_max")
	cfg.Save.UseTagCatalog = v.GetBool("save.use_tag_catalog")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "http://localhost:10801/api")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.rate_per_sec", 0)
	v.SetDefault("server.burst", 1)

	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.codec", "cbor")
	v.SetDefault("cache.namespace", "libctl")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.stale_time", 0)
	v.SetDefault("cache.max_items", 10_000)
	v.SetDefault("cache.max_decode", 8<<20)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.disabled", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")

	v.SetDefault("save.accept_status_min", 200)
	v.SetDefault("save.accept_status_max", 201)
	v.SetDefault("save.use_tag_catalog", false)
}

// Validate checks values Load cannot default.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("config: server.url is required")
	}
	switch c.Cache.Provider {
	case "memory", "ristretto", "bigcache", "redis":
	default:
		return fmt.Errorf("config: unknown cache.provider %q", c.Cache.Provider)
	}
	switch c.Cache.Codec {
	case "json", "cbor", "msgpack":
	default:
		return fmt.Errorf("config: unknown cache.codec %q", c.Cache.Codec)
	}
	if c.Cache.Namespace == "" {
		return errors.New("config: cache.namespace is required")
	}
	if c.Cache.StaleTime < 0 || c.Cache.TTL < 0 {
		return errors.New("config: cache durations must not be negative")
	}
	if c.Cache.Provider == "redis" && c.Cache.RedisAddr == "" {
		return errors.New("config: cache.redis_addr is required for the redis provider")
	}
	switch c.Logger.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown logger.encoding %q", c.Logger.Encoding)
	}
	if c.Save.AcceptStatusMin < 100 || c.Save.AcceptStatusMax > 599 || c.Save.AcceptStatusMin > c.Save.AcceptStatusMax {
		return fmt.Errorf("config: invalid accepted status range %d..%d", c.Save.AcceptStatusMin, c.Save.AcceptStatusMax)
	}
	return nil
}
