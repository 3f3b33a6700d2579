// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// TokenSecret signs driver session tokens. Required.
	TokenSecret string

	// RoutingProvider selects the routing backend: "ors" calls
	// OpenRouteService, "haversine" estimates offline at AverageSpeedMPH.
	// Defaults to "ors" when ORSAPIKey is set, "haversine" otherwise.
	RoutingProvider string

	// ORSAPIKey authenticates against OpenRouteService.
	// Required when RoutingProvider is "ors".
	ORSAPIKey string

	// AverageSpeedMPH is the assumed truck speed for the haversine
	// provider. Defaults to 60.
	AverageSpeedMPH float64

	// FuelIntervalMiles is the maximum distance between planned fuel
	// stops. Defaults to 1000.
	FuelIntervalMiles float64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ORSAPIKey:       os.Getenv("ORS_API_KEY"),
		RoutingProvider: os.Getenv("ROUTING_PROVIDER"),
	}

	if cfg.RoutingProvider == "" {
		if cfg.ORSAPIKey != "" {
			cfg.RoutingProvider = "ors"
		} else {
			cfg.RoutingProvider = "haversine"
		}
	}

	var err error
	if cfg.AverageSpeedMPH, err = getEnvFloat("AVERAGE_SPEED_MPH", 60); err != nil {
		return Config{}, err
	}
	if cfg.FuelIntervalMiles, err = getEnvFloat("FUEL_INTERVAL_MILES", 1000); err != nil {
		return Config{}, err
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if cfg.RoutingProvider == "ors" && cfg.ORSAPIKey == "" {
		return Config{}, fmt.Errorf("ROUTING_PROVIDER=ors requires ORS_API_KEY")
	}
	if cfg.RoutingProvider != "ors" && cfg.RoutingProvider != "haversine" {
		return Config{}, fmt.Errorf("ROUTING_PROVIDER must be \"ors\" or \"haversine\", got %q", cfg.RoutingProvider)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvFloat parses the environment variable named by key as a positive
// float, or returns fallback if it is not set.
func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", key, v)
	}
	return f, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
