package config

import (
	"slices"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "HTTP_ADDR", "GRPC_HOST", "GRPC_PORT", "GRPC_ADDR", "DATABASE_URL",
		"SHUTDOWN_TIMEOUT", "LOG_LEVEL", "ENV", "TIME_ZONE", "REDIS_ADDR", "REDIS_PASSWORD",
		"KAFKA_BROKERS", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != "0.0.0.0:50051" {
		t.Fatalf("GRPCAddr = %q, want 0.0.0.0:50051", cfg.GRPCAddr)
	}
	if cfg.ShutdownTimeout != 10*time.Second || cfg.GRPCRequestTimeout != 10*time.Second {
		t.Fatalf("timeouts = %s/%s, want 10s/10s", cfg.ShutdownTimeout, cfg.GRPCRequestTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("CacheTTL = %s, want 5m", cfg.CacheTTL)
	}
	if !cfg.MigrateOnStart {
		t.Fatalf("MigrateOnStart = false, want true")
	}
	if cfg.TimeZone != "UTC" || cfg.Env != "development" {
		t.Fatalf("TimeZone/Env = %q/%q", cfg.TimeZone, cfg.Env)
	}
	if len(cfg.KafkaBrokers) != 0 || cfg.KafkaTopic != "roomly.booking.created.v1" {
		t.Fatalf("kafka = %v %q", cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	if !slices.Equal(cfg.CORSAllowedOrigins, []string{"*"}) {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_EnvOverridesAndAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/rooms")
	t.Setenv("ROOMLY_REDIS_CACHE_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TIME_ZONE", "Asia/Tashkent")
	t.Setenv("ROOMLY_HTTP_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != "127.0.0.1:6000" {
		t.Fatalf("GRPCAddr = %q, want 127.0.0.1:6000", cfg.GRPCAddr)
	}
	if cfg.DatabaseURL != "postgres://u:p@db:5432/rooms" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("CacheTTL = %s, want 90s", cfg.CacheTTL)
	}
	if !slices.Equal(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Fatalf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.TimeZone != "Asia/Tashkent" {
		t.Fatalf("TimeZone = %q", cfg.TimeZone)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "ROOMLY_SHUTDOWN_TIMEOUT", "soon"},
		{"zero rate", "ROOMLY_HTTP_RATE_LIMIT_RPS", "0"},
		{"sample ratio above one", "ROOMLY_OTEL_SAMPLE_RATIO", "1.5"},
		{"unknown zone", "TIME_ZONE", "Mars/Olympus"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}
