package common

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `envconfig:"DB"`
	Server   ServerConfig   `envconfig:"SERVER"`
	Storage  StorageConfig  `envconfig:"STORAGE"`
	OCR      OCRConfig      `envconfig:"OCR"`
	LLM      LLMConfig      `envconfig:"LLM"`
	NSQ      NSQConfig      `envconfig:"NSQ"`
	Worker   WorkerConfig   `envconfig:"WORKER"`
	Log      LogConfig      `envconfig:"LOG"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `envconfig:"DRIVER" default:"postgres"`
	DSN              string        `envconfig:"URL"`
	MaxConns         int32         `envconfig:"MAX_CONNS" default:"20"`
	MinConns         int32         `envconfig:"MIN_CONNS" default:"5"`
	MaxConnLifetime  time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"30m"`
	MaxConnIdleTime  time.Duration `envconfig:"MAX_CONN_IDLE_TIME" default:"5m"`
	DialTimeout      time.Duration `envconfig:"DIAL_TIMEOUT" default:"3s"`
	StatementTimeout time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"0s"`
	AutoMigrate      bool          `envconfig:"AUTO_MIGRATE" default:"true"`
}

// ServerConfig holds the intake surfaces
type ServerConfig struct {
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr  string `envconfig:"GRPC_ADDR" default:":9090"`
	JWTSecret string `envconfig:"JWT_SECRET"`
}

// StorageConfig points at the S3-compatible object store holding documents
// and processed-event markers.
type StorageConfig struct {
	Endpoint           string        `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKey          string        `envconfig:"ACCESS_KEY"`
	SecretKey          string        `envconfig:"SECRET_KEY"`
	Region             string        `envconfig:"REGION"`
	UseSSL             bool          `envconfig:"USE_SSL" default:"false"`
	MarkerBucket       string        `envconfig:"MARKER_BUCKET" default:"processed-events"`
	SignExpiry         time.Duration `envconfig:"SIGN_EXPIRY" default:"60m"`
	UploadIntermediate bool          `envconfig:"UPLOAD_INTERMEDIATE" default:"true"`
}

// OCRConfig holds page text extraction configuration
type OCRConfig struct {
	Pdftotext string `envconfig:"PDFTOTEXT" default:"pdftotext"`
	Pdftoppm  string `envconfig:"PDFTOPPM" default:"pdftoppm"`
	Tesseract string `envconfig:"TESSERACT" default:"tesseract"`
	Lang      string `envconfig:"LANG" default:"spa"`
	DPI       int    `envconfig:"DPI" default:"300"`
	MaxPages  int    `envconfig:"MAX_PAGES" default:"0"`
	TempDir   string `envconfig:"TEMP_DIR"`
}

// LLMConfig holds semantic extraction configuration
type LLMConfig struct {
	Provider            string        `envconfig:"PROVIDER" default:"azure"`
	Endpoint            string        `envconfig:"ENDPOINT"`
	APIKey              string        `envconfig:"API_KEY"`
	Model               string        `envconfig:"MODEL"` // provider default when empty
	APIVersion          string        `envconfig:"API_VERSION" default:"2024-12-01-preview"`
	Temperature         float32       `envconfig:"TEMPERATURE" default:"0"`
	MaxCompletionTokens int           `envconfig:"MAX_COMPLETION_TOKENS" default:"35000"`
	Timeout             time.Duration `envconfig:"TIMEOUT" default:"3m"`
	ValidateSchema      bool          `envconfig:"VALIDATE_SCHEMA" default:"true"`
}

// NSQConfig enables the queue intake when Lookupd is set.
type NSQConfig struct {
	Lookupd string `envconfig:"LOOKUPD"`
	NSQD    string `envconfig:"NSQD"`
	Topic   string `envconfig:"TOPIC" default:"contracts.events"`
	Channel string `envconfig:"CHANNEL" default:"ingest"`
}

type WorkerConfig struct {
	Workers        int           `envconfig:"COUNT" default:"4"`
	QueueSize      int           `envconfig:"QUEUE_SIZE" default:"256"`
	ProcessTimeout time.Duration `envconfig:"PROCESS_TIMEOUT" default:"10m"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, NewAppError(CodeConfig, "read environment", err)
	}
	return &cfg, nil
}

// Validate checks the settings every entry point needs.
func (c *Config) Validate() error {
	checks := new(Checks).
		Field("DB_DRIVER", c.Database.Driver, OneOf("postgres", "sqlite")).
		Field("LLM_PROVIDER", c.LLM.Provider, OneOf("azure", "openai", "gemini")).
		Field("LLM_API_KEY", c.LLM.APIKey, Required).
		Field("STORAGE_MARKER_BUCKET", c.Storage.MarkerBucket, Required).
		Field("WORKER_COUNT", c.Worker.Workers, Positive).
		Field("WORKER_QUEUE_SIZE", c.Worker.QueueSize, Positive)
	if c.Database.Driver == "postgres" {
		checks.Field("DB_URL", c.Database.DSN, Required)
	}
	if c.LLM.Provider == "azure" {
		checks.Field("LLM_ENDPOINT", c.LLM.Endpoint, Required)
	}
	if c.NSQ.Lookupd != "" || c.NSQ.NSQD != "" {
		checks.Field("NSQ_TOPIC", c.NSQ.Topic, Required).
			Field("NSQ_CHANNEL", c.NSQ.Channel, Required)
	}
	if err := checks.Err(); err != nil {
		return NewAppError(CodeConfig, "invalid settings", err)
	}
	return nil
}
