package config

import (
	"testing"
	"time"
)

func TestLoadConfigEnvOverrides(t *testing.T) {
	type nested struct {
		Addr    string        `yaml:"addr"`
		Timeout time.Duration `yaml:"timeout"`
	}
	type cfg struct {
		Name  string  `yaml:"name" env:"TEST_CUSTOM_NAME"`
		Rate  float64 `yaml:"rate"`
		Redis nested  `yaml:"redis"`
	}

	t.Setenv("TEST_CUSTOM_NAME", "override")
	t.Setenv("RATE", "2.5")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_TIMEOUT", "1m30s")

	target := cfg{Name: "default", Redis: nested{Timeout: time.Second}}
	if err := LoadConfig(&target); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if target.Name != "override" {
		t.Errorf("custom env tag not applied, got %q", target.Name)
	}
	if target.Rate != 2.5 {
		t.Errorf("float not parsed, got %v", target.Rate)
	}
	if target.Redis.Addr != "cache:6379" {
		t.Errorf("nested key not applied, got %q", target.Redis.Addr)
	}
	if target.Redis.Timeout != 90*time.Second {
		t.Errorf("duration not parsed, got %v", target.Redis.Timeout)
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	if err := LoadConfig(nil); err == nil {
		t.Error("expected error for nil target")
	}
	if err := LoadConfig(struct{}{}); err == nil {
		t.Error("expected error for non-pointer target")
	}
}
