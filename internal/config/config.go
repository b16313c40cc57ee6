package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	ProjectID          string `envconfig:"FIREBASE_PROJECT_ID"`
	GoogleCloudProject string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	ServiceAccountJSON string `envconfig:"FIREBASE_SERVICE_ACCOUNT_JSON"`

	// StoreDriver selects the booking backend: firestore, postgres or memory.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"firestore"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"bookings@gymstay.local"`
	AdminEmail   string `envconfig:"ADMIN_EMAIL"`
	AppBaseURL   string `envconfig:"APP_BASE_URL" default:"http://localhost:3000"`

	AccessTokenTTLDays int    `envconfig:"ACCESS_TOKEN_TTL_DAYS" default:"90"`
	InternalJWTSecret  string `envconfig:"INTERNAL_JWT_SECRET"`

	RedisURL        string `envconfig:"REDIS_URL"`
	RateLimitPublic string `envconfig:"RATE_LIMIT_PUBLIC" default:"20-M"`
	TrustProxy      bool   `envconfig:"TRUST_PROXY" default:"false"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"gymstay.bookings"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	if c.ProjectID == "" {
		c.ProjectID = c.GoogleCloudProject
	}
	return c, nil
}

func (c Config) Origins() []string {
	allowed := []string{}
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed = append(allowed, o)
		}
	}
	return allowed
}
