package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	HTTP     ServerConfig
	MySQL    MySQLConfig
	Log      LogConfig
	Stripe   StripeConfig
	MTN      MTNConfig
	Orange   OrangeConfig
	Payments PaymentsConfig
	Jobs     JobsConfig
}

type AppConfig struct {
	ServiceName     string
	AdminAPIKey     string
	AlertWebhookURL string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type StripeConfig struct {
	SecretKey                 string
	WebhookSecret             string
	SuccessURL                string
	CancelURL                 string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

type MTNConfig struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	CallbackURL     string
	HTTPTimeout     time.Duration
}

type OrangeConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	MerchantKey  string
	ReturnURL    string
	CancelURL    string
	NotifURL     string
	HTTPTimeout  time.Duration
}

type PaymentsConfig struct {
	PendingTTL    time.Duration
	VerifyGrace   time.Duration
	VerifyCeiling time.Duration
	StuckAfter    time.Duration
	JobBatchSize  int32
}

type JobsConfig struct {
	VerifyInterval              time.Duration
	ExpireIntentsInterval       time.Duration
	ExpireSubscriptionsInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName:     getEnv("APP_SERVICE_NAME", "settlement-service"),
			AdminAPIKey:     getEnv("APP_ADMIN_API_KEY", ""),
			AlertWebhookURL: getEnv("APP_ALERT_WEBHOOK_URL", ""),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Stripe: StripeConfig{
			SecretKey:                 getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:             getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:                getEnv("STRIPE_SUCCESS_URL", ""),
			CancelURL:                 getEnv("STRIPE_CANCEL_URL", ""),
			SignatureToleranceSeconds: int64(getIntEnv("STRIPE_SIGNATURE_TOLERANCE_SECONDS", 300)),
			HTTPTimeout:               getSecondsEnv("STRIPE_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		MTN: MTNConfig{
			BaseURL:         getEnv("MTN_BASE_URL", "https://sandbox.momodeveloper.mtn.com"),
			SubscriptionKey: getEnv("MTN_SUBSCRIPTION_KEY", ""),
			APIUser:         getEnv("MTN_API_USER", ""),
			APIKey:          getEnv("MTN_API_KEY", ""),
			TargetEnv:       getEnv("MTN_TARGET_ENV", "sandbox"),
			CallbackURL:     getEnv("MTN_CALLBACK_URL", ""),
			HTTPTimeout:     getSecondsEnv("MTN_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Orange: OrangeConfig{
			BaseURL:      getEnv("ORANGE_BASE_URL", "https://api.orange.com"),
			ClientID:     getEnv("ORANGE_CLIENT_ID", ""),
			ClientSecret: getEnv("ORANGE_CLIENT_SECRET", ""),
			MerchantKey:  getEnv("ORANGE_MERCHANT_KEY", ""),
			ReturnURL:    getEnv("ORANGE_RETURN_URL", ""),
			CancelURL:    getEnv("ORANGE_CANCEL_URL", ""),
			NotifURL:     getEnv("ORANGE_NOTIF_URL", ""),
			HTTPTimeout:  getSecondsEnv("ORANGE_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Payments: PaymentsConfig{
			PendingTTL:    getMinutesEnv("PAYMENTS_PENDING_TTL_MINUTES", 60*time.Minute),
			VerifyGrace:   getMinutesEnv("PAYMENTS_VERIFY_GRACE_MINUTES", 3*time.Minute),
			VerifyCeiling: getMinutesEnv("PAYMENTS_VERIFY_CEILING_MINUTES", 6*time.Hour),
			StuckAfter:    getMinutesEnv("PAYMENTS_STUCK_AFTER_MINUTES", 30*time.Minute),
			JobBatchSize:  int32(getIntEnv("PAYMENTS_JOB_BATCH_SIZE", 100)),
		},
		Jobs: JobsConfig{
			VerifyInterval:              getMinutesEnv("PAYMENTS_VERIFY_INTERVAL_MINUTES", 2*time.Minute),
			ExpireIntentsInterval:       getMinutesEnv("PAYMENTS_EXPIRE_INTENTS_INTERVAL_MINUTES", 5*time.Minute),
			ExpireSubscriptionsInterval: getMinutesEnv("PAYMENTS_EXPIRE_SUBSCRIPTIONS_INTERVAL_MINUTES", 30*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
