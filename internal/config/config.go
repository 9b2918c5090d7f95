package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type AppCfg struct {
	Env             string        `mapstructure:"env"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreCfg struct {
	Driver string `mapstructure:"driver"`
}

type MongoCfg struct {
	URI             string        `mapstructure:"uri"`
	Database        string        `mapstructure:"database"`
	UsersCollection string        `mapstructure:"users_collection"`
	PostsCollection string        `mapstructure:"posts_collection"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	// Transactions wraps two-document writes in a session transaction.
	// Needs a replica set or sharded cluster.
	Transactions bool `mapstructure:"transactions"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheCfg struct {
	FeedTTL time.Duration `mapstructure:"feed_ttl"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTCfg struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type SecurityCfg struct {
	PasswordHashCost int `mapstructure:"password_hash_cost"`
}

type Config struct {
	App      AppCfg      `mapstructure:"app"`
	Store    StoreCfg    `mapstructure:"store"`
	Mongo    MongoCfg    `mapstructure:"mongo"`
	Redis    RedisCfg    `mapstructure:"redis"`
	Cache    CacheCfg    `mapstructure:"cache"`
	Kafka    KafkaCfg    `mapstructure:"kafka"`
	JWT      JWTCfg      `mapstructure:"jwt"`
	Security SecurityCfg `mapstructure:"security"`
}

// Load reads the YAML file at path (optional when empty) and applies
// environment overrides such as MONGO_URI, JWT_SECRET or APP_PORT.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.read_timeout", 15*time.Second)
	v.SetDefault("app.write_timeout", 15*time.Second)
	v.SetDefault("app.idle_timeout", 60*time.Second)
	v.SetDefault("app.request_timeout", 10*time.Second)
	v.SetDefault("app.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", StoreMongo)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "social")
	v.SetDefault("mongo.users_collection", "users")
	v.SetDefault("mongo.posts_collection", "posts")
	v.SetDefault("mongo.connect_timeout", 30*time.Second)
	v.SetDefault("mongo.transactions", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.feed_ttl", 30*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "social.events")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", time.Hour)

	v.SetDefault("security.password_hash_cost", 10)
}

func validate(cfg *Config) error {
	if cfg.App.Port <= 0 {
		return errors.New("app.port is missing or invalid")
	}
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required (set in .env or config.yaml)")
	}
	if cfg.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}

	switch cfg.Store.Driver {
	case StoreMongo:
		if cfg.Mongo.URI == "" {
			return errors.New("MONGO_URI is required")
		}
		if cfg.Mongo.Database == "" {
			return errors.New("mongo.database is missing")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q", StoreMongo, StoreMemory)
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic == "" {
		return errors.New("kafka.topic required when kafka.brokers is set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
