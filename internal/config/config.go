package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	AuthCookieSecure bool
	PublicDir        string
	HTTPAddr         string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis     RedisConfig
	Upload    UploadConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Metrics   RemoteMetricsConfig
	Scheduler SchedulerConfig
	Session   SessionConfig

	AdminEmail    string
	AdminPassword string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a redis address was configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type UploadConfig struct {
	Driver        string
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
	LocalDir      string
	MaxBytes      int64
}

type EmailConfig struct {
	Provider       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	From           string
	SalesRecipient string
}

type RateLimitConfig struct {
	Enabled bool
	// FormsPerSecond is the sustained rate for public form submissions per client.
	FormsPerSecond int
	FormsBurst     int
}

type RemoteMetricsConfig struct {
	Enabled   bool
	Exporter  string
	Endpoint  string
	AuthToken string
	Interval  time.Duration
}

// SessionConfig shapes the browser session cookie. Zero values fall back to
// the session package defaults.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	SameSite   string
}

type SchedulerConfig struct {
	Enabled     bool
	RunInterval time.Duration
	BatchSize   int
	// SessionRetention is how long expired or revoked sessions are kept.
	SessionRetention time.Duration
	EnabledJobs      []string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "greenpack"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		AuthCookieSecure: authCookieSecure,
		PublicDir:        getenv("PUBLIC_DIR", "./public"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "greenpack"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
			CacheTTL: time.Duration(getenvInt64("PRODUCT_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Upload: UploadConfig{
			Driver:        strings.ToLower(getenv("UPLOAD_DRIVER", "local")),
			Bucket:        getenv("UPLOAD_BUCKET", "logos"),
			Region:        getenv("UPLOAD_REGION", "us-east-1"),
			Endpoint:      strings.TrimSpace(getenv("UPLOAD_ENDPOINT", "")),
			PublicBaseURL: strings.TrimRight(strings.TrimSpace(getenv("UPLOAD_PUBLIC_BASE_URL", "")), "/"),
			LocalDir:      getenv("UPLOAD_LOCAL_DIR", "./uploads"),
			MaxBytes:      getenvInt64("UPLOAD_MAX_BYTES", 5<<20),
		},
		Email: EmailConfig{
			Provider:       strings.ToLower(getenv("EMAIL_PROVIDER", "noop")),
			SMTPHost:       getenv("SMTP_HOST", ""),
			SMTPPort:       getenvInt("SMTP_PORT", 587),
			SMTPUser:       getenv("SMTP_USER", ""),
			SMTPPassword:   getenv("SMTP_PASSWORD", ""),
			From:           getenv("EMAIL_FROM", "no-reply@greenpack.local"),
			SalesRecipient: strings.TrimSpace(getenv("SALES_NOTIFICATION_EMAIL", "")),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getenvBool("FORM_RATE_LIMIT_ENABLED", true),
			FormsPerSecond: getenvInt("FORM_RATE_LIMIT_PER_SECOND", 1),
			FormsBurst:     getenvInt("FORM_RATE_LIMIT_BURST", 5),
		},
		Metrics: RemoteMetricsConfig{
			Enabled:   getenvBool("REMOTE_METRICS_ENABLED", false),
			Exporter:  strings.ToLower(getenv("REMOTE_METRICS_EXPORTER", "remote_write")),
			Endpoint:  strings.TrimSpace(getenv("REMOTE_METRICS_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("REMOTE_METRICS_AUTH_TOKEN", "")),
			Interval:  time.Duration(getenvInt64("REMOTE_METRICS_INTERVAL_SECONDS", 30)) * time.Second,
		},

		Scheduler: SchedulerConfig{
			Enabled:          getenvBool("SCHEDULER_ENABLED", true),
			RunInterval:      time.Duration(getenvInt64("SCHEDULER_INTERVAL_SECONDS", 60)) * time.Second,
			BatchSize:        getenvInt("SCHEDULER_BATCH_SIZE", 500),
			SessionRetention: time.Duration(getenvInt64("SESSION_RETENTION_HOURS", 24)) * time.Hour,
			EnabledJobs:      splitList(getenv("SCHEDULER_JOBS", "")),
		},

		Session: SessionConfig{
			CookieName: strings.TrimSpace(getenv("AUTH_COOKIE_NAME", "")),
			TTL:        time.Duration(getenvInt64("AUTH_SESSION_TTL_HOURS", 0)) * time.Hour,
			SameSite:   strings.ToLower(strings.TrimSpace(getenv("AUTH_COOKIE_SAMESITE", ""))),
		},

		AdminEmail:    strings.TrimSpace(getenv("ADMIN_EMAIL", "")),
		AdminPassword: getenv("ADMIN_PASSWORD", ""),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	return int(getenvInt64(key, int64(def)))
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
