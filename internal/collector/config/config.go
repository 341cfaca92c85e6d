package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type ServerConfig struct {
	GRPCAddress string `yaml:"grpcAddress" env:"COLLECTOR_GRPC_ADDRESS" env-default:":4317" env-description:"OTLP gRPC listen address"`
	HTTPAddress string `yaml:"httpAddress" env:"COLLECTOR_HTTP_ADDRESS" env-default:":8889" env-description:"Metrics and health listen address"`
}

type LimitsConfig struct {
	MaxInFlightItems int64 `yaml:"maxInFlightItems" env:"COLLECTOR_MAX_IN_FLIGHT_ITEMS" env-default:"10000" env-description:"Ceiling on buffered telemetry items before ingestion is refused"`
}

type BatchConfig struct {
	Size    int           `yaml:"size" env:"COLLECTOR_BATCH_SIZE" env-default:"512" env-description:"Batch size that triggers an immediate flush"`
	Timeout time.Duration `yaml:"timeout" env:"COLLECTOR_BATCH_TIMEOUT" env-default:"5s" env-description:"Maximum age of a partially filled batch"`
}

type EnrichmentConfig struct {
	Attributes map[string]string `yaml:"attributes" env:"COLLECTOR_ENRICH_ATTRIBUTES" env-description:"Attributes upserted onto every item"`
}

type RetryConfig struct {
	MaxRetries      uint64        `yaml:"maxRetries" env:"COLLECTOR_EXPORT_MAX_RETRIES" env-default:"3" env-description:"Export attempts after the first failure before a batch is dropped"`
	InitialInterval time.Duration `yaml:"initialInterval" env:"COLLECTOR_EXPORT_RETRY_INTERVAL" env-default:"250ms" env-description:"First retry backoff interval"`
}

type QueueConfig struct {
	Size int `yaml:"size" env:"COLLECTOR_EXPORT_QUEUE_SIZE" env-default:"64" env-description:"Batches buffered per exporter before the newest is dropped"`
}

type TraceForwardConfig struct {
	Enabled bool   `yaml:"enabled" env:"COLLECTOR_TRACE_FORWARD_ENABLED" env-default:"false"`
	Address string `yaml:"address" env:"COLLECTOR_TRACE_FORWARD_ADDRESS" env-default:"localhost:4317" env-description:"Downstream OTLP address of the trace store"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `yaml:"enabled" env:"COLLECTOR_ELASTICSEARCH_ENABLED" env-default:"false"`
	Addresses []string `yaml:"addresses" env:"COLLECTOR_ELASTICSEARCH_ADDRESSES" env-default:"http://localhost:9200" env-description:"Elasticsearch node addresses for the span archive"`
	SpanIndex string   `yaml:"spanIndex" env:"COLLECTOR_ELASTICSEARCH_SPAN_INDEX" env-default:"emporium-spans"`
}

type DebugConfig struct {
	Enabled bool `yaml:"enabled" env:"COLLECTOR_DEBUG_EXPORTER_ENABLED" env-default:"false"`
}

type ExportersConfig struct {
	TraceForward  TraceForwardConfig  `yaml:"traceForward"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Debug         DebugConfig         `yaml:"debug"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Limits     LimitsConfig     `yaml:"limits"`
	Batch      BatchConfig      `yaml:"batch"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Retry      RetryConfig      `yaml:"retry"`
	Queue      QueueConfig      `yaml:"queue"`
	Exporters  ExportersConfig  `yaml:"exporters"`
}

// ReadConfig loads the collector configuration from the YAML file at path,
// with environment variables overriding file values. An empty path reads the
// environment alone, falling back to the declared defaults.
func ReadConfig(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("error reading config from environment: %w", err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return &cfg, nil
}
