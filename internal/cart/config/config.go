package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Address           string        `env:"CART_ADDRESS" env-default:":7001" env-description:"HTTP listen address"`
	CollectorAddress  string        `env:"COLLECTOR_ADDRESS" env-default:"localhost:4317" env-description:"OTLP gRPC address of the telemetry collector"`
	ProductCatalogUrl string        `env:"PRODUCT_CATALOG_SERVICE_ADDR" env-default:"http://localhost:7000" env-description:"Base URL of the product catalog service"`
	CartTTL           time.Duration `env:"CART_TTL" env-default:"2h" env-description:"Idle time after which a cart is evicted, zero disables eviction"`
	EvictionInterval  time.Duration `env:"CART_EVICTION_INTERVAL" env-default:"1m" env-description:"How often the cart store scans for idle carts"`
}

func ReadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading config from environment: %w", err)
	}
	return &cfg, nil
}
