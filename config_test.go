package quartermaster

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("QUARTERMASTER_QUEUE_NAME", "from-env")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server != "localhost" {
		t.Errorf("expected default server, got %q", cfg.Server)
	}
	if cfg.QueueName != "from-env" {
		t.Errorf("expected queue_name from environment, got %q", cfg.QueueName)
	}
	if cfg.RequeueLimit != 5 {
		t.Errorf("expected default requeue_limit 5, got %d", cfg.RequeueLimit)
	}
}

func TestLoadConfigFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "server: redis.internal\nport: 6380\nqueue_name: orders\nrequeue_limit: 3\nbusy_expiry_time: 45s\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server != "redis.internal" {
		t.Errorf("expected server from file, got %q", cfg.Server)
	}
	if cfg.Port != 6380 {
		t.Errorf("expected port 6380, got %d", cfg.Port)
	}
	if cfg.QueueName != "orders" {
		t.Errorf("expected queue_name 'orders', got %q", cfg.QueueName)
	}
	if cfg.RequeueLimit != 3 {
		t.Errorf("expected requeue_limit 3, got %d", cfg.RequeueLimit)
	}
	if cfg.BusyExpiryTime != 45*time.Second {
		t.Errorf("expected busy_expiry_time 45s, got %v", cfg.BusyExpiryTime)
	}
}

func TestLoadConfigMissingQueueNameFailsValidation(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected validation error when queue_name is unset")
	}
}
