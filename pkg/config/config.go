package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for the processor
// service. It is loaded once at process start and never mutated.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Mission  MissionConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Audit    AuditConfig
	Notifier NotifierConfig
	Tracing  TracingConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Name string `env:"APP_NAME" envDefault:"sciflow-processor"`
	// Environment selects bucket naming: anything other than PRODUCTION
	// routes to dev-prefixed buckets.
	Environment string `env:"PIPELINE_ENV" envDefault:"DEVELOPMENT"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
}

type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"300s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
}

// MissionConfig names the mission and its instruments. Instrument names
// drive both bucket routing and calibration registry population.
type MissionConfig struct {
	Name        string   `env:"MISSION_NAME" envDefault:"hermes"`
	Instruments []string `env:"MISSION_INSTRUMENTS" envSeparator:"," envDefault:"eea,nemisis,merit,spani"`
	// CalibrationCommand is the external routine invoked per file. It
	// receives --instrument <name> and the input path, and prints each
	// produced artifact path on stdout.
	CalibrationCommand string `env:"CALIBRATION_COMMAND" envDefault:"sciflow-calibrate"`
}

type PipelineConfig struct {
	// LocalFile bypasses both fetch and publish for offline runs.
	LocalFile string `env:"PIPELINE_LOCAL_FILE"`
	// UseFixture substitutes FixtureFile for the fetched input.
	UseFixture   bool   `env:"PIPELINE_USE_FIXTURE" envDefault:"false"`
	FixtureFile  string `env:"PIPELINE_FIXTURE_FILE"`
	MaxBodyBytes int64  `env:"PIPELINE_MAX_BODY_BYTES" envDefault:"1048576"`
}

type StorageConfig struct {
	Provider   string `env:"STORAGE_PROVIDER" envDefault:"minio"`
	Endpoint   string `env:"STORAGE_ENDPOINT" envDefault:"localhost:9000"`
	Region     string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	AccessKey  string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey  string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL     bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
	ScratchDir string `env:"STORAGE_SCRATCH_DIR"`
}

// AuditConfig points at the append-only audit stream. Leaving Brokers
// empty disables auditing (records are dropped, visibility is log-only).
type AuditConfig struct {
	Brokers          []string      `env:"AUDIT_KAFKA_BROKERS" envSeparator:","`
	Topic            string        `env:"AUDIT_KAFKA_TOPIC" envDefault:"sciflow.audit"`
	Retries          int           `env:"AUDIT_KAFKA_RETRIES" envDefault:"3"`
	CompressionCodec string        `env:"AUDIT_KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize        int           `env:"AUDIT_KAFKA_BATCH_SIZE" envDefault:"1"`
	BatchTimeout     time.Duration `env:"AUDIT_KAFKA_BATCH_TIMEOUT" envDefault:"100ms"`
}

// NotifierConfig points at the operator alert channel. Leaving the URL
// empty degrades silently to log-only visibility.
type NotifierConfig struct {
	WebhookURL  string        `env:"NOTIFY_WEBHOOK_URL"`
	Channel     string        `env:"NOTIFY_CHANNEL" envDefault:"ops-alerts"`
	MaxAttempts int           `env:"NOTIFY_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay  time.Duration `env:"NOTIFY_RETRY_DELAY" envDefault:"5s"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=sciflow"`
}

type MetricsConfig struct {
	Addr string `env:"METRICS_ADDR" envDefault:":9102"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
