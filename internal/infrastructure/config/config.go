package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the credit risk service.
type Config struct {
	Kafka           KafkaConfig   `yaml:"kafka"`
	Auth            AuthConfig    `yaml:"auth"`
	TLS             TLSConfig     `yaml:"tls"`
	Tracing         TracingConfig `yaml:"tracing"`
	Model           ModelConfig   `yaml:"model"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	HTTPPort        string        `yaml:"http_port"`
	GRPCPort        string        `yaml:"grpc_port"`
	Environment     string        `yaml:"environment"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimitRPS    int           `yaml:"rate_limit_rps"`
	GRPCReflection  bool          `yaml:"grpc_reflection"`
}

// ModelConfig locates the artifacts.
type ModelConfig struct {
	Dir              string `yaml:"dir"`
	PreprocessorFile string `yaml:"preprocessor_file"`
	ModelFile        string `yaml:"model_file"`
	ONNXRuntimeLib   string `yaml:"onnx_runtime_lib"`
	ForceWrapper     bool   `yaml:"force_wrapper"`
}

// KafkaConfig controls decision event publishing.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ClientID      string   `yaml:"client_id"`
	SASLMechanism string   `yaml:"sasl_mechanism"`
	SASLUsername  string   `yaml:"sasl_username"`
	SASLPassword  string   `yaml:"sasl_password"`
	Enabled       bool     `yaml:"enabled"`
	TLS           bool     `yaml:"tls"`
}

// AuthConfig controls JWT validation on /predict and the gRPC API.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	JWTPublicKeyFile string        `yaml:"jwt_public_key_file"`
	Issuer           string        `yaml:"issuer"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	Enabled          bool          `yaml:"enabled"`
}

// TLSConfig enables TLS on the gRPC listener when CertFile is set.
type TLSConfig struct {
	CertFile     string `yaml:"cert_file"`
	KeyFile      string `yaml:"key_file"`
	ClientCAFile string `yaml:"client_ca_file"`
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Enabled  bool   `yaml:"enabled"`
	Insecure bool   `yaml:"insecure"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort:        "5001",
		GRPCPort:        "9091",
		Environment:     "development",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 15 * time.Second,
		CORSOrigins:     []string{"*"},
		Model: ModelConfig{
			Dir:              "model",
			PreprocessorFile: "preprocessor.json",
		},
		Kafka: KafkaConfig{
			Brokers:  []string{"localhost:9092"},
			Topic:    "creditrisk.assessments",
			ClientID: "creditrisk",
		},
		Auth: AuthConfig{
			Issuer:   "creditrisk",
			TokenTTL: time.Hour,
		},
		Tracing: TracingConfig{
			Endpoint: "localhost:4317",
			Insecure: true,
		},
	}
}

// Load reads the YAML file named by CONFIG_FILE, if any, over the defaults
// and then applies environment variables on top.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.GRPCPort = getEnv("GRPC_PORT", c.GRPCPort)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)

	var err error
	c.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	collect(err)
	c.RateLimitRPS, err = getEnvInt("RATE_LIMIT_RPS", c.RateLimitRPS)
	collect(err)
	c.GRPCReflection, err = getEnvBool("GRPC_REFLECTION", c.GRPCReflection)
	collect(err)

	c.Model.Dir = getEnv("MODEL_DIR", c.Model.Dir)
	c.Model.PreprocessorFile = getEnv("PREPROCESSOR_FILE", c.Model.PreprocessorFile)
	c.Model.ModelFile = getEnv("MODEL_FILE", c.Model.ModelFile)
	c.Model.ONNXRuntimeLib = getEnv("ONNX_RUNTIME_LIB", c.Model.ONNXRuntimeLib)
	c.Model.ForceWrapper, err = getEnvBool("FORCE_WRAPPER_PATH", c.Model.ForceWrapper)
	collect(err)

	c.Kafka.Enabled, err = getEnvBool("EVENTS_ENABLED", c.Kafka.Enabled)
	collect(err)
	c.Kafka.Brokers = getEnvList("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.ClientID = getEnv("KAFKA_CLIENT_ID", c.Kafka.ClientID)
	c.Kafka.TLS, err = getEnvBool("KAFKA_TLS", c.Kafka.TLS)
	collect(err)
	c.Kafka.SASLMechanism = getEnv("KAFKA_SASL_MECHANISM", c.Kafka.SASLMechanism)
	c.Kafka.SASLUsername = getEnv("KAFKA_SASL_USERNAME", c.Kafka.SASLUsername)
	c.Kafka.SASLPassword = getEnv("KAFKA_SASL_PASSWORD", c.Kafka.SASLPassword)

	c.Auth.Enabled, err = getEnvBool("AUTH_ENABLED", c.Auth.Enabled)
	collect(err)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTPublicKeyFile = getEnv("JWT_PUBLIC_KEY", c.Auth.JWTPublicKeyFile)
	c.Auth.Issuer = getEnv("JWT_ISSUER", c.Auth.Issuer)

	c.TLS.CertFile = getEnv("TLS_CERT_FILE", c.TLS.CertFile)
	c.TLS.KeyFile = getEnv("TLS_KEY_FILE", c.TLS.KeyFile)
	c.TLS.ClientCAFile = getEnv("TLS_CLIENT_CA_FILE", c.TLS.ClientCAFile)

	c.Tracing.Enabled, err = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	collect(err)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)

	return errors.Join(errs...)
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}
	if c.GRPCPort == "" {
		errs = append(errs, errors.New("GRPC_PORT is required"))
	}
	if c.Model.Dir == "" {
		errs = append(errs, errors.New("MODEL_DIR is required"))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" && c.Auth.JWTPublicKeyFile == "" {
		errs = append(errs, errors.New("AUTH_ENABLED requires JWT_SECRET or JWT_PUBLIC_KEY"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("EVENTS_ENABLED requires KAFKA_BROKERS"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
