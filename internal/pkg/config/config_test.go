package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.AccessTokenTTL != 15*time.Minute || cfg.RefreshTokenTTL != 168*time.Hour {
		t.Errorf("unexpected ttl defaults: %v %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.StorageDriver != DriverMongo {
		t.Errorf("StorageDriver = %q", cfg.StorageDriver)
	}
	if cfg.Mongo.Database != "healthcare" {
		t.Errorf("Mongo.Database = %q", cfg.Mongo.Database)
	}
	if cfg.Postgres.MaxConns != 10 || cfg.Postgres.MinConns != 2 {
		t.Errorf("unexpected pool defaults: %+v", cfg.Postgres)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 0 {
		t.Errorf("unexpected redis defaults: %+v", cfg.Redis)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development env")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":        "s3cret",
		"ENV":               "production",
		"STORAGE_DRIVER":    "Postgres",
		"ACCESS_TOKEN_TTL":  "5m",
		"REFRESH_TOKEN_TTL": "24h",
		"DATABASE_URL":      "postgres://db:5432/app",
		"DB_MAX_CONNS":      "20",
		"REDIS_DB":          "3",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDriver != DriverPostgres {
		t.Errorf("StorageDriver = %q", cfg.StorageDriver)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.RefreshTokenTTL != 24*time.Hour {
		t.Errorf("unexpected ttls: %v %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.Postgres.URL != "postgres://db:5432/app" || cfg.Postgres.MaxConns != 20 {
		t.Errorf("unexpected postgres config: %+v", cfg.Postgres)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("Redis.DB = %d", cfg.Redis.DB)
	}
	if cfg.IsDevelopment() {
		t.Error("production must not be development")
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "STORAGE_DRIVER": "sqlite"}, "STORAGE_DRIVER"},
		{"refresh shorter than access", map[string]string{"JWT_SECRET": "x", "ACCESS_TOKEN_TTL": "2h", "REFRESH_TOKEN_TTL": "1h"}, "REFRESH_TOKEN_TTL"},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "ACCESS_TOKEN_TTL": "soon"}, "soon"},
		{"pool bounds", map[string]string{"JWT_SECRET": "x", "DB_MIN_CONNS": "30"}, "DB_MIN_CONNS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.env))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
