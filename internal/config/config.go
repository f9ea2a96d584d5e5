package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	LogLevel  string
	LogFormat string

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

	KafkaBrokers       []string
	KafkaConsumerGroup string

	// Inbound topics carrying serialized purchase outcome events, one per projection.
	TopicPurchaseOutcome      string
	TopicMemberProfileOutcome string

	// Outbound topic for every integration event.
	TopicIntegrationEvents string

	TransactionServiceURL string
	PaymentTemplateURL    string
	RemoteServiceTimeout  time.Duration
	RetryBatchSize        int
	RetryRunInterval      time.Duration
	HTTPAddr              string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "purchasegw"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "json")),

		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "purchasegw"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		KafkaBrokers:       parseList(getenv("KAFKA_BROKERS", "localhost:9092")),
		KafkaConsumerGroup: getenv("KAFKA_CONSUMER_GROUP", "purchasegw-integration"),

		TopicPurchaseOutcome:      getenv("TOPIC_PURCHASE_OUTCOME", "purchase.processed"),
		TopicMemberProfileOutcome: getenv("TOPIC_MEMBER_PROFILE_OUTCOME", "purchase.processed.memberprofile"),
		TopicIntegrationEvents:    getenv("TOPIC_INTEGRATION_EVENTS", "purchasegw.integration-events"),

		TransactionServiceURL: getenv("TRANSACTION_SERVICE_URL", "http://transaction-service"),
		PaymentTemplateURL:    getenv("PAYMENT_TEMPLATE_SERVICE_URL", "http://payment-template-service"),
		RemoteServiceTimeout:  getenvDuration("REMOTE_SERVICE_TIMEOUT", 30*time.Second),
		RetryBatchSize:        getenvInt("RETRY_BATCH_SIZE", 100),
		RetryRunInterval:      getenvDuration("RETRY_RUN_INTERVAL", time.Minute),
		HTTPAddr:              getenv("HTTP_ADDR", ":8080"),
	}

	return cfg
}

// Module wires configuration into the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
