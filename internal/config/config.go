package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "parkgate/libs/config"
)

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"PARKGATE_HTTP_PORT"`
}

// DatabaseConfig holds ledger connection settings.
type DatabaseConfig struct {
	DSN       string        `yaml:"dsn" env:"PARKGATE_POSTGRES_DSN"`
	TxTimeout time.Duration `yaml:"txTimeout" env:"PARKGATE_TX_TIMEOUT"`
}

// RedisConfig holds mirror connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"PARKGATE_REDIS_ADDR"`
	Password string `yaml:"password" env:"PARKGATE_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"PARKGATE_REDIS_DB"`
}

// MirrorConfig bounds best-effort projection writes.
type MirrorConfig struct {
	WriteBudget time.Duration `yaml:"writeBudget" env:"PARKGATE_MIRROR_WRITE_BUDGET"`
}

// PricingConfig carries the fallback rate used when no active price row exists.
type PricingConfig struct {
	DefaultRatePerHour float64 `yaml:"defaultRatePerHour" env:"PARKGATE_DEFAULT_RATE_PER_HOUR"`
}

// PaymentsConfig carries the method recorded for scan-driven exits.
type PaymentsConfig struct {
	DefaultMethod string `yaml:"defaultMethod" env:"PARKGATE_DEFAULT_PAYMENT_METHOD"`
}

// FacilityConfig names the local calendar and the gate doors.
type FacilityConfig struct {
	Timezone string `yaml:"timezone" env:"PARKGATE_FACILITY_TIMEZONE"`
	Doors    string `yaml:"doors" env:"PARKGATE_FACILITY_DOORS"`
}

// Config defines the parkgate service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Payments PaymentsConfig `yaml:"payments"`
	Facility FacilityConfig `yaml:"facility"`
}

// Load reads configuration via the shared helper and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:     HTTPConfig{Port: "8080"},
		Database: DatabaseConfig{TxTimeout: 5 * time.Second},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Mirror:   MirrorConfig{WriteBudget: 3 * time.Second},
		Pricing:  PricingConfig{DefaultRatePerHour: 1.0},
		Payments: PaymentsConfig{DefaultMethod: "cash"},
		Facility: FacilityConfig{Timezone: "Local", Doors: "door1,door2"},
	}

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// Location resolves the facility timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Facility.Timezone)
	if tz == "" || strings.EqualFold(tz, "Local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// DoorNames splits the configured door list.
func (c *Config) DoorNames() []string {
	var names []string
	for _, name := range strings.Split(c.Facility.Doors, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
