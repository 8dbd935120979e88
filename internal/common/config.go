package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	LLM     LLMConfig
	Extract ExtractConfig
	Jobs    JobsConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StorageConfig holds upload/output directory configuration
type StorageConfig struct {
	UploadDir     string
	OutputDir     string
	MaxUploadSize int64
}

// LLMConfig holds Gemini-related configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// ExtractConfig holds PDF text extraction tool configuration
type ExtractConfig struct {
	Pdftotext string
	Pdftoppm  string
	Tesseract string
	DPI       int
	MaxPages  int
}

// JobsConfig holds pipeline worker and registry configuration
type JobsConfig struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	TTL           time.Duration // 0 disables eviction of terminal jobs
	SweepInterval time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // console or json
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         getEnv("ADDR", ":8000"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 60*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Storage: StorageConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
			OutputDir:     getEnv("OUTPUT_DIR", "outputs"),
			MaxUploadSize: getEnvAsInt64("MAX_UPLOAD_SIZE", 50*1024*1024),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			BaseURL:     getEnv("GEMINI_BASE_URL", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 120*time.Second),
		},
		Extract: ExtractConfig{
			Pdftotext: getEnv("PDFTOTEXT", "pdftotext"),
			Pdftoppm:  getEnv("PDFTOPPM", "pdftoppm"),
			Tesseract: getEnv("TESSERACT", "tesseract"),
			DPI:       getEnvAsInt("PDF_OCR_DPI", 300),
			MaxPages:  getEnvAsInt("PDF_OCR_MAX_PAGES", 0),
		},
		Jobs: JobsConfig{
			Workers:       getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize:     getEnvAsInt("PIPELINE_QUEUE_SIZE", 64),
			JobTimeout:    getEnvAsDuration("JOB_TIMEOUT", 5*time.Minute),
			TTL:           getEnvAsDuration("JOB_TTL", 0),
			SweepInterval: getEnvAsDuration("JOB_SWEEP_INTERVAL", time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "ADDR is required", ErrInvalidInput)
	}
	if c.Storage.MaxUploadSize <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_SIZE must be positive", ErrInvalidInput)
	}
	if c.Jobs.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
