package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/greenpack/internal/config"
)

const defaultServiceName = "greenpack"

// Config holds observability configuration derived from the app config and
// OTEL_* / LOG_* environment variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig resolves observability settings. Development environments log
// in console format, sample every trace and keep the exporter off unless
// OTEL_ENABLED is set.
func LoadConfig(cfg config.Config) Config {
	environment := strings.TrimSpace(envOr("DEPLOYMENT_ENV", cfg.Environment))
	dev := isDevEnv(environment)

	out := Config{
		ServiceName: strings.TrimSpace(cfg.AppName),
		Environment: environment,
		Version:     strings.TrimSpace(envOr("SERVICE_VERSION", cfg.AppVersion)),
		LogLevel:    strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(envOr("LOG_FORMAT", "json")),

		OtelEnabled:          envBool("OTEL_ENABLED", !dev),
		OtelExporterEndpoint: envOr("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: normalizeProtocol(envOr("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OtelSamplingRatio:    0.1,
	}
	if out.ServiceName == "" {
		out.ServiceName = defaultServiceName
	}
	if dev && os.Getenv("LOG_FORMAT") == "" {
		out.LogFormat = "console"
	}
	if dev {
		out.OtelSamplingRatio = 1
	}
	if ratio, ok := envFloat("OTEL_SAMPLING_RATIO"); ok {
		out.OtelSamplingRatio = clampRatio(ratio)
	}
	return out
}

func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	return isDevEnv(c.Environment)
}

func isDevEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// normalizeProtocol folds the OTLP protocol names onto "grpc" or "http".
func normalizeProtocol(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "http", "http/protobuf", "http/json":
		return "http"
	default:
		return "grpc"
	}
}

func clampRatio(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func envOr(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func envBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

func envFloat(key string) (float64, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
