package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config reúne toda a configuração da API, lida das variáveis de ambiente.
type Config struct {
	Port        string `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabasePath string        `envconfig:"DATABASE_PATH" default:"./sqlite-database.db"`
	DBTimeout    time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`

	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	BackendURL  string `envconfig:"BACKEND_URL" default:"http://localhost:3000"`

	// Gateway de pagamento: "mercadopago" ou "stripe"
	PaymentProvider string        `envconfig:"PAYMENT_PROVIDER" default:"mercadopago"`
	GatewayTimeout  time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`

	MPAccessToken   string `envconfig:"MP_ACCESS_TOKEN"`
	MPWebhookSecret string `envconfig:"MP_WEBHOOK_SECRET"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeProductID     string `envconfig:"STRIPE_PRODUCT_ID"`

	// Provedor de identidade: "firebase" ou "local"
	IdentityProvider    string        `envconfig:"IDENTITY_PROVIDER" default:"firebase"`
	IdentityTimeout     time.Duration `envconfig:"IDENTITY_TIMEOUT" default:"10s"`
	FirebaseProjectID   string        `envconfig:"FIREBASE_PROJECT_ID"`
	FirebaseCredentials string        `envconfig:"FIREBASE_CREDENTIALS_FILE"`
	JWTSecret           string        `envconfig:"JWT_SECRET"`
	JWTIssuer           string        `envconfig:"JWT_ISSUER" default:"eduplan-api"`
	AccessTokenTTL      time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h"`

	// Cache de status do plano. Vazio desliga o cache.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	PlanCacheTTL  time.Duration `envconfig:"PLAN_CACHE_TTL" default:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NotificationURL é a URL do webhook informada ao Mercado Pago.
func (c *Config) NotificationURL() string {
	return c.BackendURL + "/api/webhooks/mercadopago"
}
