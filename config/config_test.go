package config

import (
	"reflect"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:9090" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	if cfg.JWT.CookieName != "accessToken" || cfg.JWT.AccessTokenExpiry != 60 {
		t.Errorf("jwt = %+v", cfg.JWT)
	}
	if cfg.Cache.Driver != "memory" || cfg.Storage.Driver != "disk" {
		t.Errorf("drivers = %q %q", cfg.Cache.Driver, cfg.Storage.Driver)
	}
	if cfg.Storage.MaxSize != 25<<20 {
		t.Errorf("max size = %d", cfg.Storage.MaxSize)
	}
	if cfg.Socket.MaxAutoJoinRooms != 200 {
		t.Errorf("max rooms = %d", cfg.Socket.MaxAutoJoinRooms)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("kafka should be disabled, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.Server.AllowedOrigins, want) {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if want := []string{"k1:9092", "k2:9092"}; !reflect.DeepEqual(cfg.Kafka.Brokers, want) {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Cache.Driver != "redis" || cfg.Storage.Driver != "minio" || !cfg.Storage.MinioUseSSL {
		t.Errorf("cfg = %+v %+v", cfg.Cache, cfg.Storage)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad port", map[string]string{"SERVER_PORT": "http"}, "SERVER_PORT"},
		{"bad cache driver", map[string]string{"CACHE_DRIVER": "memcached"}, "CACHE_DRIVER"},
		{"bad storage driver", map[string]string{"STORAGE_DRIVER": "s3"}, "STORAGE_DRIVER"},
		{"bad upload size", map[string]string{"UPLOAD_MAX_SIZE": "big"}, "UPLOAD_MAX_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestEmailEnabled(t *testing.T) {
	if (EmailConfig{ResendAPIKey: "k", FromEmail: "f"}).Enabled() {
		t.Error("partial config should be disabled")
	}
	if !(EmailConfig{ResendAPIKey: "k", FromEmail: "f", AppURL: "u"}).Enabled() {
		t.Error("full config should be enabled")
	}
}
