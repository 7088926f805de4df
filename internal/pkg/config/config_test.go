package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.Storage.Backend != StorageFile {
		t.Errorf("expected file backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.AccessPointsKey != "access_points.json" || cfg.Storage.UsersKey != "users.json" {
		t.Errorf("unexpected storage keys: %+v", cfg.Storage)
	}
	if cfg.Push.PrivateKeyFile != "private_key.pem" {
		t.Errorf("unexpected key file %q", cfg.Push.PrivateKeyFile)
	}
	if cfg.Push.Timeout != 10*time.Second {
		t.Errorf("expected 10s push timeout, got %v", cfg.Push.Timeout)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis should be disabled by default, got %q", cfg.Redis.Addr)
	}
	if cfg.IsProduction() {
		t.Errorf("default env should not be production")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":             "9000",
		"ENV":              "production",
		"STORAGE_BACKEND":  "mongo",
		"REDIS_ADDR":       "redis:6379",
		"PUSH_TIMEOUT":     "3s",
		"QUEUE_WORKERS":    "2",
		"SHUTDOWN_TIMEOUT": "1m",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}

	if cfg.Port != "9000" || !cfg.IsProduction() {
		t.Errorf("unexpected server config: %+v", cfg)
	}
	if cfg.Storage.Backend != StorageMongo || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("unexpected backends: %+v %+v", cfg.Storage, cfg.Redis)
	}
	if cfg.Push.Timeout != 3*time.Second || cfg.Reports.Workers != 2 || cfg.ShutdownTimeout != time.Minute {
		t.Errorf("unexpected tuning: %+v %+v %v", cfg.Push, cfg.Reports, cfg.ShutdownTimeout)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad backend":  {"STORAGE_BACKEND": "sqlite"},
		"bad duration": {"PUSH_TIMEOUT": "soon"},
		"bad int":      {"BCRYPT_COST": "high"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
