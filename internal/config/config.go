package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr          string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	PublicBaseURL string `yaml:"public_base_url" env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-required:"true"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-required:"true"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-required:"true"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"CONN_MAX_LIFETIME" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"CONN_MAX_IDLE_TIME" env-default:"1m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER" env-required:"true"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD" env-required:"true"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"1m"`
}

type Stripe struct {
	APIKey           string   `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
	WebhookSecret    string   `yaml:"STRIPE_WEBHOOK_SECRET" env:"STRIPE_WEBHOOK_SECRET" env-default:""`
	Currency         string   `yaml:"STRIPE_CURRENCY" env:"STRIPE_CURRENCY" env-default:"eur"`
	AllowedCountries []string `yaml:"STRIPE_ALLOWED_COUNTRIES" env:"STRIPE_ALLOWED_COUNTRIES" env-default:"GB,FR"`
}

type SendGrid struct {
	APIKey    string `yaml:"API_KEY" env:"SENDGRID_API_KEY"`
	FromEmail string `yaml:"FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"no-reply@example.com"`
	FromName  string `yaml:"FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Storefront"`
}

type Security struct {
	JWTKey string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
}

// Checkout drives the saga timings. PendingTTL is also sent to the gateway as the
// session expiry, so a swept order can no longer be paid.
type Checkout struct {
	LowStockThreshold int           `yaml:"LOW_STOCK_THRESHOLD" env:"LOW_STOCK_THRESHOLD" env-default:"10"`
	PendingTTL        time.Duration `yaml:"PENDING_TTL" env:"PENDING_TTL" env-default:"1h"`
	SweepGrace        time.Duration `yaml:"SWEEP_GRACE" env:"SWEEP_GRACE" env-default:"5m"`
	SweepInterval     time.Duration `yaml:"SWEEP_INTERVAL" env:"SWEEP_INTERVAL" env-default:"1m"`
	SweepBatchSize    int           `yaml:"SWEEP_BATCH_SIZE" env:"SWEEP_BATCH_SIZE" env-default:"100"`
	NotifyQueueSize   int           `yaml:"NOTIFY_QUEUE_SIZE" env:"NOTIFY_QUEUE_SIZE" env-default:"64"`
}

type Kafka struct {
	Brokers []string `yaml:"KAFKA_BROKERS" env:"KAFKA_BROKERS"`
	Topic   string   `yaml:"KAFKA_TOPIC" env:"KAFKA_TOPIC" env-default:"checkout.events"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"DEFAULT_TTL" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
}

type Tracing struct {
	Enabled  bool   `yaml:"ENABLED" env:"TRACING_ENABLED" env-default:"false"`
	Endpoint string `yaml:"ENDPOINT" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4318"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   `yaml:"http_server"`
	Storage      Storage      `yaml:"storage"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	RateConfig   RateConfig   `yaml:"rateConfig"`
	Stripe       Stripe       `yaml:"stripe"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
	Security     Security     `yaml:"security"`
	Checkout     Checkout     `yaml:"checkout"`
	Kafka        Kafka        `yaml:"kafka"`
	Cache        CacheConfig  `yaml:"cache"`
	Tracing      Tracing      `yaml:"tracing"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			log.Fatal("Config path is not set")
		}

	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}

// Load reads the YAML file at path and overlays environment variables.
func Load(path string) (*Config, error) {

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("can not read config file: %w", err)
	}

	return &cfg, nil
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/%d", r.Username, r.Password, r.Host, r.Port, r.DB)
}
