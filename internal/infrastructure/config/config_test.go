package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5001", cfg.HTTPAddress())
	assert.Equal(t, ":9091", cfg.GRPCAddress())
	assert.Equal(t, "model", cfg.Model.Dir)
	assert.Equal(t, "preprocessor.json", cfg.Model.PreprocessorFile)
	assert.Empty(t, cfg.Model.ModelFile)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("MODEL_DIR", "/srv/models")
	t.Setenv("MODEL_FILE", "final_xgb_model.onnx")
	t.Setenv("FORCE_WRAPPER_PATH", "true")
	t.Setenv("EVENTS_ENABLED", "1")
	t.Setenv("KAFKA_BROKERS", "kafka-0:9092, kafka-1:9092,")
	t.Setenv("CORS_ORIGINS", "https://app.example.com")
	t.Setenv("RATE_LIMIT_RPS", "50")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("ENVIRONMENT", "Production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, "/srv/models", cfg.Model.Dir)
	assert.Equal(t, "final_xgb_model.onnx", cfg.Model.ModelFile)
	assert.True(t, cfg.Model.ForceWrapper)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 50, cfg.RateLimitRPS)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creditrisk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: "7000"
log_level: debug
model:
  dir: /opt/model
  force_wrapper: true
kafka:
  enabled: true
  topic: decisions
tracing:
  enabled: true
  endpoint: otel:4317
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.HTTPPort)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/opt/model", cfg.Model.Dir)
	assert.Equal(t, "preprocessor.json", cfg.Model.PreprocessorFile)
	assert.True(t, cfg.Model.ForceWrapper)
	assert.Equal(t, "decisions", cfg.Kafka.Topic)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "otel:4317", cfg.Tracing.Endpoint)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{
			name:    "bad integer",
			env:     map[string]string{"RATE_LIMIT_RPS": "lots"},
			wantErr: "RATE_LIMIT_RPS",
		},
		{
			name:    "bad bool",
			env:     map[string]string{"EVENTS_ENABLED": "sometimes"},
			wantErr: "EVENTS_ENABLED",
		},
		{
			name:    "auth without key",
			env:     map[string]string{"AUTH_ENABLED": "true"},
			wantErr: "AUTH_ENABLED requires JWT_SECRET or JWT_PUBLIC_KEY",
		},
		{
			name:    "half tls",
			env:     map[string]string{"TLS_CERT_FILE": "server.crt"},
			wantErr: "must be set together",
		},
		{
			name:    "events without brokers",
			env:     map[string]string{"EVENTS_ENABLED": "true", "KAFKA_BROKERS": ""},
			wantErr: "EVENTS_ENABLED requires KAFKA_BROKERS",
		},
		{
			name:    "unknown file key",
			file:    "http_prot: 1234\n",
			wantErr: "field http_prot not found",
		},
		{
			name:    "missing file",
			env:     map[string]string{"CONFIG_FILE": "/nonexistent/creditrisk.yaml"},
			wantErr: "read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "c.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				t.Setenv("CONFIG_FILE", path)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
