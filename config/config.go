package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort     int            `yaml:"server_port"`
	Env            string         `yaml:"env"`
	ClientURL      string         `yaml:"client_url"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	BodyLimitBytes int64          `yaml:"body_limit_bytes"`
	Database       DatabaseConfig `yaml:"database"`
	Auth           AuthConfig     `yaml:"auth"`
	Google         GoogleConfig   `yaml:"google"`
	Storage        StorageConfig  `yaml:"storage"`
	MQ             MQConfig       `yaml:"mq"`
	PDF            PDFConfig      `yaml:"pdf"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	UseSSL   bool   `yaml:"use_ssl"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	Issuer        string        `yaml:"issuer"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type StorageConfig struct {
	// Backend is one of "", "minio" or "gcs". Empty disables resume uploads.
	Backend string      `yaml:"backend"`
	Minio   MinioConfig `yaml:"minio"`
	GCS     GCSConfig   `yaml:"gcs"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type MQConfig struct {
	// Backend is one of "", "rabbitmq" or "pubsub". Empty keeps domain events in-process.
	Backend     string         `yaml:"backend"`
	TopicPrefix string         `yaml:"topic_prefix"`
	QueueSize   int            `yaml:"queue_size"`
	RabbitMQ    RabbitMQConfig `yaml:"rabbitmq"`
	PubSub      PubSubConfig   `yaml:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	QueueDurable    bool   `yaml:"queue_durable"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete"`
	PrefetchCount   int    `yaml:"prefetch_count"`
}

type PubSubConfig struct {
	ProjectID          string `yaml:"project_id"`
	CredentialsFile    string `yaml:"credentials_file"`
	SubscriptionSuffix string `yaml:"subscription_suffix"`
}

type PDFConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	ChromiumArgs []string      `yaml:"chromium_args"`
	SkipInstall  bool          `yaml:"skip_install"`
}

// IsDevelopment reports whether stack traces may be exposed in error responses.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development":
		return true
	}
	return false
}

// Validate checks settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Storage.Backend {
	case "", "minio", "gcs":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.MQ.Backend {
	case "", "rabbitmq", "pubsub":
	default:
		return fmt.Errorf("unknown mq backend %q", c.MQ.Backend)
	}
	return nil
}

func LoadConfig() Config {
	if env := os.Getenv("ENV"); env == "dev" || env == "development" {
		godotenv.Load()
	}

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read %s: %v\n", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg
}

func defaults() Config {
	return Config{
		ServerPort:     8080,
		Env:            "production",
		ClientURL:      "http://localhost:3000",
		AllowedOrigins: []string{"*"},
		BodyLimitBytes: 10 << 20,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "jobportal",
			Password: "password",
			DBName:   "jobportal_db",
		},
		Auth: AuthConfig{
			Issuer:     "jobportal",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Google: GoogleConfig{
			RedirectURL: "http://localhost:8080/api/auth/google/callback",
		},
		MQ: MQConfig{
			TopicPrefix: "jobportal.",
			QueueSize:   256,
		},
		PDF: PDFConfig{
			Timeout:      30 * time.Second,
			ChromiumArgs: []string{"--no-sandbox", "--disable-setuid-sandbox"},
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	cfg.ServerPort = getEnvInt("SERVER_PORT", cfg.ServerPort)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.ClientURL = getEnv("CLIENT_URL", cfg.ClientURL)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.BodyLimitBytes = int64(getEnvInt("BODY_LIMIT_BYTES", int(cfg.BodyLimitBytes)))

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.UseSSL = getEnvBool("DB_USE_SSL", cfg.Database.UseSSL)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.RefreshSecret = getEnv("JWT_REFRESH_SECRET", cfg.Auth.RefreshSecret)
	if cfg.Auth.RefreshSecret == "" {
		cfg.Auth.RefreshSecret = cfg.Auth.JWTSecret
	}
	cfg.Auth.Issuer = getEnv("JWT_ISSUER", cfg.Auth.Issuer)
	cfg.Auth.AccessTTL = getEnvDuration("JWT_ACCESS_TTL", cfg.Auth.AccessTTL)
	cfg.Auth.RefreshTTL = getEnvDuration("JWT_REFRESH_TTL", cfg.Auth.RefreshTTL)

	cfg.Google.ClientID = getEnv("GOOGLE_CLIENT_ID", cfg.Google.ClientID)
	cfg.Google.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", cfg.Google.ClientSecret)
	cfg.Google.RedirectURL = getEnv("GOOGLE_REDIRECT_URL", cfg.Google.RedirectURL)

	cfg.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", cfg.Storage.Backend))
	cfg.Storage.Minio.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Storage.Minio.Endpoint)
	cfg.Storage.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Storage.Minio.AccessKey)
	cfg.Storage.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Storage.Minio.SecretKey)
	cfg.Storage.Minio.Bucket = getEnv("MINIO_BUCKET", cfg.Storage.Minio.Bucket)
	cfg.Storage.Minio.UseSSL = getEnvBool("MINIO_USE_SSL", cfg.Storage.Minio.UseSSL)
	cfg.Storage.GCS.Bucket = getEnv("GCS_BUCKET", cfg.Storage.GCS.Bucket)
	cfg.Storage.GCS.ProjectID = getEnv("GCS_PROJECT_ID", cfg.Storage.GCS.ProjectID)
	cfg.Storage.GCS.CredentialsFile = getEnv("GCS_CREDENTIALS_FILE", cfg.Storage.GCS.CredentialsFile)

	cfg.MQ.Backend = strings.ToLower(getEnv("MQ_BACKEND", cfg.MQ.Backend))
	cfg.MQ.TopicPrefix = getEnv("MQ_TOPIC_PREFIX", cfg.MQ.TopicPrefix)
	cfg.MQ.QueueSize = getEnvInt("MQ_QUEUE_SIZE", cfg.MQ.QueueSize)
	cfg.MQ.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.MQ.RabbitMQ.URL)
	cfg.MQ.RabbitMQ.QueueDurable = getEnvBool("RABBITMQ_QUEUE_DURABLE", cfg.MQ.RabbitMQ.QueueDurable)
	cfg.MQ.RabbitMQ.QueueAutoDelete = getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", cfg.MQ.RabbitMQ.QueueAutoDelete)
	cfg.MQ.RabbitMQ.PrefetchCount = getEnvInt("RABBITMQ_PREFETCH_COUNT", cfg.MQ.RabbitMQ.PrefetchCount)
	cfg.MQ.PubSub.ProjectID = getEnv("PUBSUB_PROJECT_ID", cfg.MQ.PubSub.ProjectID)
	cfg.MQ.PubSub.CredentialsFile = getEnv("PUBSUB_CREDENTIALS_FILE", cfg.MQ.PubSub.CredentialsFile)
	cfg.MQ.PubSub.SubscriptionSuffix = getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", cfg.MQ.PubSub.SubscriptionSuffix)

	cfg.PDF.Timeout = getEnvDuration("PDF_TIMEOUT", cfg.PDF.Timeout)
	cfg.PDF.ChromiumArgs = getEnvList("PDF_CHROMIUM_ARGS", cfg.PDF.ChromiumArgs)
	cfg.PDF.SkipInstall = getEnvBool("PDF_SKIP_INSTALL", cfg.PDF.SkipInstall)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
