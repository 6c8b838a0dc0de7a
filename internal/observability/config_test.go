package observability

import (
	"testing"

	"github.com/smallbiznis/greenpack/internal/config"
)

func clearObservabilityEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOG_LEVEL", "LOG_FORMAT", "DEPLOYMENT_ENV", "SERVICE_VERSION",
		"OTEL_ENABLED", "OTEL_SAMPLING_RATIO", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_PROTOCOL", "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigProductionDefaults(t *testing.T) {
	clearObservabilityEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP/protobuf")

	cfg := LoadConfig(config.Config{Environment: "production", AppVersion: "1.2.3", OTLPEndpoint: "collector:4317"})
	if cfg.ServiceName != "greenpack" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.OtelExporterProtocol != "http" {
		t.Fatalf("expected http protocol, got %q", cfg.OtelExporterProtocol)
	}
	if !cfg.OtelEnabled || cfg.OtelSamplingRatio != 0.1 {
		t.Fatalf("expected exporter on with 0.1 sampling, got %v/%v", cfg.OtelEnabled, cfg.OtelSamplingRatio)
	}
	if cfg.LogFormat != "json" || cfg.Version != "1.2.3" || cfg.OtelExporterEndpoint != "collector:4317" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Debug() {
		t.Fatalf("production info logging should not be debug")
	}
}

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	clearObservabilityEnv(t)

	cfg := LoadConfig(config.Config{AppName: "greenpack-dev", Environment: "development"})
	if cfg.ServiceName != "greenpack-dev" {
		t.Fatalf("expected configured service name, got %q", cfg.ServiceName)
	}
	if cfg.OtelEnabled {
		t.Fatalf("expected exporter off in development")
	}
	if cfg.LogFormat != "console" || cfg.OtelSamplingRatio != 1 {
		t.Fatalf("expected console logs and full sampling, got %q/%v", cfg.LogFormat, cfg.OtelSamplingRatio)
	}
	if cfg.OtelExporterProtocol != "grpc" {
		t.Fatalf("expected grpc default, got %q", cfg.OtelExporterProtocol)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearObservabilityEnv(t)
	t.Setenv("DEPLOYMENT_ENV", "staging")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_SAMPLING_RATIO", "3")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "http/json")
	t.Setenv("LOG_FORMAT", "json")

	cfg := LoadConfig(config.Config{Environment: "development"})
	if cfg.Environment != "staging" {
		t.Fatalf("expected DEPLOYMENT_ENV to win, got %q", cfg.Environment)
	}
	if cfg.OtelEnabled {
		t.Fatalf("expected OTEL_ENABLED=false to disable export")
	}
	if cfg.OtelSamplingRatio != 1 {
		t.Fatalf("expected ratio clamped to 1, got %v", cfg.OtelSamplingRatio)
	}
	if cfg.OtelExporterProtocol != "http" {
		t.Fatalf("expected traces protocol to win, got %q", cfg.OtelExporterProtocol)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected explicit log format, got %q", cfg.LogFormat)
	}
}

func TestDebugInDevelopment(t *testing.T) {
	if !(Config{Environment: "development"}).Debug() {
		t.Fatalf("expected debug in development")
	}
	if !(Config{Environment: "production", LogLevel: "DEBUG"}).Debug() {
		t.Fatalf("expected debug when level is debug")
	}
}
