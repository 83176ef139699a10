package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	billing "smartpark-iot/internal/billing/domain"
	parkingapp "smartpark-iot/internal/parking/application"
	parking "smartpark-iot/internal/parking/domain"
)

type config struct {
	HTTPAddr             string        `yaml:"-"`
	DatabaseURL          string        `yaml:"-"`
	JWTSecret            string        `yaml:"-"`
	TokenTTL             time.Duration `yaml:"-"`
	AuthEnforce          bool          `yaml:"-"`
	SeedDemoReservations bool          `yaml:"-"`

	Simulation simulationConfig `yaml:"simulation"`
	Pricing    pricingConfig    `yaml:"pricing"`
}

type simulationConfig struct {
	Slots           int                `yaml:"slots"`
	Interval        time.Duration      `yaml:"interval"`
	FlipProbability float64            `yaml:"flip_probability"`
	PicksPerTick    int                `yaml:"picks_per_tick"`
	Seed            uint64             `yaml:"seed"`
	Autostart       bool               `yaml:"autostart"`
	Environment     *environmentConfig `yaml:"environment"`
}

type environmentConfig struct {
	Temperature float64 `yaml:"temperature"`
	Humidity    float64 `yaml:"humidity"`
	CO2Level    int     `yaml:"co2_level"`
}

type pricingConfig struct {
	PerHour int `yaml:"per_hour"`
}

func loadConfig() (config, error) {
	cfg := config{
		HTTPAddr:             getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:          getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		JWTSecret:            getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TokenTTL:             getenvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		AuthEnforce:          getenvBool("AUTH_ENFORCE", false),
		SeedDemoReservations: getenvBool("SEED_DEMO_RESERVATIONS", true),
		Simulation: simulationConfig{
			Slots:           getenvIntDefault("SIM_SLOTS", parking.DefaultSlotCount),
			Interval:        getenvDuration("SIM_INTERVAL", parkingapp.DefaultInterval),
			FlipProbability: parkingapp.DefaultFlipProbability,
			PicksPerTick:    parkingapp.DefaultPicksPerTick,
			Seed:            uint64(getenvIntDefault("SIM_SEED", 0)),
			Autostart:       getenvBool("SIM_AUTOSTART", true),
		},
		Pricing: pricingConfig{PerHour: billing.PricePerHour},
	}

	if path := os.Getenv("SMARTPARK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if cfg.Simulation.Slots <= 0 {
		return cfg, errors.New("config: simulation.slots must be positive")
	}
	if cfg.Simulation.Interval <= 0 {
		return cfg, errors.New("config: simulation.interval must be positive")
	}
	if cfg.Simulation.FlipProbability <= 0 || cfg.Simulation.FlipProbability > 1 {
		return cfg, errors.New("config: simulation.flip_probability must be within (0,1]")
	}
	if cfg.Simulation.PicksPerTick <= 0 {
		return cfg, errors.New("config: simulation.picks_per_tick must be positive")
	}
	if cfg.Pricing.PerHour <= 0 {
		return cfg, errors.New("config: pricing.per_hour must be positive")
	}
	return cfg, nil
}

// initialEnvironment returns the configured starting readings or the defaults.
func (c simulationConfig) initialEnvironment() parking.Environment {
	if c.Environment == nil {
		return parking.DefaultEnvironment()
	}
	return parking.Environment{
		Temperature: c.Environment.Temperature,
		Humidity:    c.Environment.Humidity,
		CO2Level:    c.Environment.CO2Level,
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
