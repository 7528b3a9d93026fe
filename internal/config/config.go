package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr     string
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string
	ServiceName  string
	LogLevel     string

	PaystackSecretKey string
	PaystackBaseURL   string
	// PublicBaseURL is where the provider can reach this service; the callback path is appended.
	PublicBaseURL     string
	ClientRedirectURL string
	EmailDomain       string
	CookieSecure      bool

	SessionTTL     time.Duration
	PendingTxTTL   time.Duration
	GatewayTimeout time.Duration

	ArchiverGroup   string
	ArchiverWorkers int
}

// Load reads the environment. Empty POSTGRES_DSN, REDIS_ADDR and KAFKA_BROKERS
// switch the matching backend off.
func Load() Config {
	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8081"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		ServiceName:  getenv("SERVICE_NAME", "chat-api"),
		LogLevel:     getenv("LOG_LEVEL", "info"),

		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PublicBaseURL:     strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8081"), "/"),
		ClientRedirectURL: getenv("CLIENT_REDIRECT_URL", "http://localhost:3000"),
		EmailDomain:       getenv("CUSTOMER_EMAIL_DOMAIN", "example.com"),
		CookieSecure:      getBool("COOKIE_SECURE", false),

		SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour),
		PendingTxTTL:   getDuration("PENDING_TX_TTL", 2*time.Hour),
		GatewayTimeout: getDuration("GATEWAY_TIMEOUT", 10*time.Second),

		ArchiverGroup:   getenv("ARCHIVER_GROUP", "order-archiver"),
		ArchiverWorkers: getInt("ARCHIVER_WORKERS", 4),
	}
}

// CallbackURL is the absolute payment callback address handed to the provider.
func (c Config) CallbackURL() string { return c.PublicBaseURL + "/payment-callback" }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getBool(k string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return b
}

func getInt(k string, def int) int {
	i, err := strconv.Atoi(os.Getenv(k))
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
