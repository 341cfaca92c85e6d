package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Address          string `env:"PRODUCT_CATALOG_ADDRESS" env-default:":7000" env-description:"HTTP listen address"`
	CollectorAddress string `env:"COLLECTOR_ADDRESS" env-default:"localhost:4317" env-description:"OTLP gRPC address of the telemetry collector"`
}

func ReadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading config from environment: %w", err)
	}
	return &cfg, nil
}
