package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	StorageFile  = "file"
	StorageMongo = "mongo"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Storage StorageConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Push    PushConfig
	Reports ReportsConfig
	Users   UsersConfig
}

type StorageConfig struct {
	Backend         string `env:"STORAGE_BACKEND,   default=file"`
	DataDir         string `env:"DATA_DIR,          default=data"`
	AccessPointsKey string `env:"ACCESS_POINTS_KEY, default=access_points.json"`
	UsersKey        string `env:"USERS_KEY,         default=users.json"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=access_points"`
}

// RedisConfig is optional; an empty address keeps push subscriptions in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type PushConfig struct {
	PrivateKeyFile string        `env:"VAPID_PRIVATE_KEY_FILE, default=private_key.pem"`
	Subject        string        `env:"VAPID_SUBJECT,          default=mailto:admin@example.com"`
	TTL            int           `env:"PUSH_TTL,               default=60"`
	Timeout        time.Duration `env:"PUSH_TIMEOUT,           default=10s"`
}

type ReportsConfig struct {
	Fanout  int `env:"PUSH_FANOUT,   default=8"`
	Workers int `env:"QUEUE_WORKERS, default=4"`
}

type UsersConfig struct {
	BcryptCost int `env:"BCRYPT_COST, default=10"`
}

// IsProduction reports whether ENV selects production output.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	switch cfg.Storage.Backend {
	case StorageFile, StorageMongo:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
	return &cfg, nil
}
