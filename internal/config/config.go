package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig      `envconfig:"APP"`
	HTTP     HTTPConfig     `envconfig:"HTTP"`
	Postgres PostgresConfig `envconfig:"POSTGRES"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Elastic  ElasticConfig  `envconfig:"ELASTIC"`
	MinIO    MinIOConfig    `envconfig:"MINIO"`
	SMTP     SMTPConfig     `envconfig:"SMTP"`
	Kafka    KafkaConfig    `envconfig:"KAFKA"`
	Scylla   ScyllaConfig   `envconfig:"SCYLLA"`
	Auth     AuthConfig     `envconfig:"AUTH"`
	OAuth    OAuthConfig    `envconfig:"OAUTH"`
	Invoice  InvoiceConfig  `envconfig:"INVOICE"`
	Notify   NotifyConfig   `envconfig:"NOTIFY"`
}

type AppConfig struct {
	Name    string `envconfig:"NAME" default:"bookstore"`
	Env     string `envconfig:"ENV" default:"development"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`
}

type HTTPConfig struct {
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	Port           int      `envconfig:"PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type PostgresConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD"`
	DBName   string `envconfig:"DB" default:"bookstore"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"MAX_CONNS" default:"10"`
}

type RedisConfig struct {
	Addr     string `envconfig:"ADDR" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// ElasticConfig : la recherche est désactivée si URL est vide.
type ElasticConfig struct {
	URL      string `envconfig:"URL"`
	User     string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Index    string `envconfig:"INDEX" default:"books"`
}

type MinIOConfig struct {
	Endpoint  string `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	UseSSL    bool   `envconfig:"USE_SSL" default:"false"`
	Bucket    string `envconfig:"BUCKET" default:"bookstore"`
}

type SMTPConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM" default:"noreply@bookstore.local"`
	TLS      bool   `envconfig:"TLS" default:"true"`
}

// KafkaConfig : la publication d'événements est désactivée sans brokers.
type KafkaConfig struct {
	Brokers       []string `envconfig:"BROKERS"`
	OrderTopic    string   `envconfig:"ORDER_TOPIC" default:"bookstore.orders"`
	ConsumerGroup string   `envconfig:"CONSUMER_GROUP" default:"bookstore-audit"`
}

// ScyllaConfig : l'historique d'audit est désactivé sans hôtes.
type ScyllaConfig struct {
	Hosts    []string      `envconfig:"HOSTS"`
	Keyspace string        `envconfig:"KEYSPACE" default:"bookstore_audit"`
	Username string        `envconfig:"USERNAME"`
	Password string        `envconfig:"PASSWORD"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

type AuthConfig struct {
	JWTSecret     string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	SessionSecret string        `envconfig:"SESSION_SECRET"`
}

type OAuthConfig struct {
	GoogleClientID       string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `envconfig:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `envconfig:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `envconfig:"FACEBOOK_CLIENT_SECRET"`
}

type InvoiceConfig struct {
	CompanyName string        `envconfig:"COMPANY_NAME" default:"Bookstore"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

type NotifyConfig struct {
	Timeout time.Duration `envconfig:"TIMEOUT" default:"20s"`
}

// Load charge le .env s'il existe puis lit les variables d'environnement.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("lecture configuration: %w", err)
	}
	return &cfg, cfg.validate()
}

func (h HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("HTTP_PORT invalide")
	}
	if c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.DBName == "" {
		return fmt.Errorf("configuration postgres incomplète")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("AUTH_JWT_SECRET doit faire au moins 16 caractères")
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT doit être positif")
	}
	return nil
}
