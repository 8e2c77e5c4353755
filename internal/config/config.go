// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	SiteURL                 string `yaml:"site_url" env:"SITE_URL" env-default:"http://localhost:8080"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Billing                 `yaml:"billing"`
	Newsletter              `yaml:"newsletter"`
	MagicLink               `yaml:"magic_link"`
	EarlyBirdLimit          int `yaml:"early_bird_limit" env:"EARLY_BIRD_LIMIT" env-default:"100"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с сессионным jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"720h"` // 30 дней
	CookieName   string        `yaml:"cookie_name" env-default:"pw_session"`
}

// RabbitMQ структура для настройки подключения к брокеру очередей
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
}

// SMTP структура для настройки отправки почты
type SMTP struct {
	SMTPHost string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASS"`
}

// Billing структура с реквизитами платёжного провайдера
type Billing struct {
	BillingAPIURL           string `yaml:"billing_api_url" env-default:"https://api.stripe.com/v1"`
	BillingSecretKey        string `yaml:"billing_secret_key" env:"BILLING_SECRET_KEY"`
	WebhookSecret           string `yaml:"webhook_secret" env:"BILLING_WEBHOOK_SECRET"`
	MonthlyPriceID          string `yaml:"monthly_price_id" env:"MONTHLY_PRICE_ID"`
	YearlyPriceID           string `yaml:"yearly_price_id" env:"YEARLY_PRICE_ID"`
	EarlyBirdMonthlyPriceID string `yaml:"early_bird_monthly_price_id" env:"EARLY_BIRD_MONTHLY_PRICE_ID"`
	EarlyBirdYearlyPriceID  string `yaml:"early_bird_yearly_price_id" env:"EARLY_BIRD_YEARLY_PRICE_ID"`
}

// Newsletter структура с реквизитами платформы рассылки
type Newsletter struct {
	NewsletterAPIURL        string `yaml:"newsletter_api_url"`
	NewsletterAPIKey        string `yaml:"newsletter_api_key" env:"NEWSLETTER_API_KEY"`
	NewsletterPublicationID string `yaml:"newsletter_publication_id"`
}

// MagicLink структура со сроками жизни одноразовых токенов входа
type MagicLink struct {
	RequestTokenTTL  time.Duration `yaml:"request_token_ttl" env-default:"1h"`   // Повторный запрос ссылки
	PurchaseTokenTTL time.Duration `yaml:"purchase_token_ttl" env-default:"24h"` // Ссылка после оплаты
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из файла по CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
