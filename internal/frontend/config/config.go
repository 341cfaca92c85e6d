package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Address           string `env:"FRONTEND_ADDRESS" env-default:":8080" env-description:"HTTP listen address"`
	CollectorAddress  string `env:"COLLECTOR_ADDRESS" env-default:"localhost:4317" env-description:"OTLP gRPC address of the telemetry collector"`
	ProductCatalogUrl string `env:"PRODUCT_CATALOG_SERVICE_ADDR" env-default:"http://localhost:7000" env-description:"Base URL of the product catalog service"`
	CartUrl           string `env:"CART_SERVICE_ADDR" env-default:"http://localhost:7001" env-description:"Base URL of the cart service"`
}

func ReadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading config from environment: %w", err)
	}
	return &cfg, nil
}
