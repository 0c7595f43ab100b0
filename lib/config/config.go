// Package config loads the lab manager's runtime configuration from the
// environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the lab manager daemon.
type Config struct {
	Port string

	DataDir     string // root of logs/ and overlays/
	LibraryDir  string // root of firmware descriptor directories

	ExternalBridge string // pre-existing, NAT'd bridge (e.g. "br0")
	InternalBridge string // manager-created segmented bridge (e.g. "br_internal")
	InternalSubnet string // CIDR assigned to the internal bridge, e.g. "192.168.200.0/24"; the
	// gateway address is derived from this CIDR by network.DeriveGateway, not configured separately

	ExternalLeaseFile string
	InternalLeaseFile string

	StopGraceTimeout  time.Duration
	LeaseRefreshEvery time.Duration

	LogLevel string
}

// Load loads configuration from environment variables.
// Automatically loads a .env file if present; absence is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8080"),

		DataDir:    getEnv("DATA_DIR", "/var/lib/labmgr"),
		LibraryDir: getEnv("LIBRARY_DIR", "/var/lib/labmgr/library"),

		ExternalBridge:  getEnv("EXTERNAL_BRIDGE", "br0"),
		InternalBridge:  getEnv("INTERNAL_BRIDGE", "br_internal"),
		InternalSubnet:  getEnv("INTERNAL_SUBNET", "192.168.200.0/24"),

		ExternalLeaseFile: getEnv("EXTERNAL_LEASE_FILE", "/var/lib/misc/dnsmasq-br0.leases"),
		InternalLeaseFile: getEnv("INTERNAL_LEASE_FILE", "/var/lib/misc/dnsmasq-br_internal.leases"),

		StopGraceTimeout:  getEnvDuration("STOP_GRACE_TIMEOUT", 10*time.Second),
		LeaseRefreshEvery: getEnvDuration("LEASE_REFRESH_INTERVAL", 5*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// ParseMemoryMB parses a firmware descriptor's "memory" field (e.g. "256" or
// "256M") into a megabyte count suitable for the emulator's -m flag.
func ParseMemoryMB(s string) (int, error) {
	if s == "" {
		return 256, nil
	}
	// Plain integers are treated as already-megabytes, matching the source's
	// bare "256" convention.
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return int(v / datasize.MB), nil
}
