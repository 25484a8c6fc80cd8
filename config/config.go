package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       logger.Config   `yaml:"log"`
	Upload    UploadConfig    `yaml:"upload"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	Queue     QueueConfig     `yaml:"queue"`
	Extractor ExtractorConfig `yaml:"extractor"`
	LLM       LLMConfig       `yaml:"llm"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowOrigins    []string      `yaml:"allow_origins"`
}

type UploadConfig struct {
	MaxFileSize       int64    `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type StorageConfig struct {
	Type      string        `yaml:"type"` // local, s3, minio
	LocalDir  string        `yaml:"local_dir"`
	Retention time.Duration `yaml:"retention"`
	SweepSpec string        `yaml:"sweep_spec"`
	S3        S3Config      `yaml:"s3"`
	Minio     MinioConfig   `yaml:"minio"`
}

type CacheConfig struct {
	Type          string        `yaml:"type"` // redis, memory, none
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	MemorySize    int           `yaml:"memory_size"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres, mysql
	DSN    string `yaml:"dsn"`
}

type QueueConfig struct {
	Enabled     bool          `yaml:"enabled"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisDB     int           `yaml:"redis_db"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Concurrency int           `yaml:"concurrency"`
}

type ExtractorConfig struct {
	Type     string         `yaml:"type"` // pdf, textract
	Textract TextractConfig `yaml:"textract"`
}

type LLMConfig struct {
	Provider  string        `yaml:"provider"` // heuristic, gemini, openai, ollama
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	Endpoint  string        `yaml:"endpoint"` // ollama only
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

type PipelineConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file or env overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: 5 * time.Second,
			AllowOrigins:    []string{"*"},
		},
		Log: logger.DefaultConfig(),
		Upload: UploadConfig{
			MaxFileSize:       10 * 1024 * 1024,
			AllowedExtensions: []string{".pdf"},
		},
		Storage: StorageConfig{
			Type:      "local",
			LocalDir:  "data",
			Retention: time.Hour,
			SweepSpec: "*/15 * * * *",
		},
		Cache: CacheConfig{
			Type:       "memory",
			TTL:        time.Hour,
			RedisAddr:  "localhost:6379",
			MemorySize: 1024,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "db.sqlite3",
		},
		Queue: QueueConfig{
			RedisAddr:   "localhost:6379",
			MaxRetries:  5,
			RetryDelay:  time.Minute,
			Concurrency: 5,
		},
		Extractor: ExtractorConfig{
			Type: "pdf",
			Textract: TextractConfig{
				MinConfidence: 80,
			},
		},
		LLM: LLMConfig{
			Provider:  "heuristic",
			Model:     "gemini-1.5-flash",
			MaxTokens: 2048,
			Timeout:   2 * time.Minute,
		},
		Pipeline: PipelineConfig{
			MaxConcurrent: 4,
			Timeout:       10 * time.Minute,
		},
	}
}

// Load reads the YAML file at path (optional), then .env, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Storage.Type, "STORAGE_TYPE")
	setString(&c.Storage.LocalDir, "STORAGE_LOCAL_DIR")
	setString(&c.Cache.Type, "CACHE_TYPE")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Queue.RedisAddr, "REDIS_ADDR")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Extractor.Type, "EXTRACTOR_TYPE")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")

	switch c.LLM.Provider {
	case "gemini":
		setString(&c.LLM.APIKey, "GOOGLE_API_KEY")
	case "openai":
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	case "ollama":
		setString(&c.LLM.Endpoint, "OLLAMA_HOST")
	}

	if v := os.Getenv("UPLOAD_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid UPLOAD_MAX_FILE_SIZE: %w", err)
		}
		c.Upload.MaxFileSize = n
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	if v := os.Getenv("QUEUE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_ENABLED: %w", err)
		}
		c.Queue.Enabled = b
	}

	c.Storage.S3.applyEnv()
	c.Storage.Minio.applyEnv()
	c.Extractor.Textract.applyEnv()
	return nil
}

// Validate checks enumerated fields and limits.
func (c *Config) Validate() error {
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("upload.allowed_extensions must not be empty")
	}
	if err := oneOf("storage.type", c.Storage.Type, "local", "s3", "minio"); err != nil {
		return err
	}
	if err := oneOf("cache.type", c.Cache.Type, "redis", "memory", "none"); err != nil {
		return err
	}
	if c.Cache.Type != "none" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive for cache type %s", c.Cache.Type)
	}
	if err := oneOf("database.driver", c.Database.Driver, "sqlite", "postgres", "mysql"); err != nil {
		return err
	}
	if err := oneOf("extractor.type", c.Extractor.Type, "pdf", "textract"); err != nil {
		return err
	}
	if err := oneOf("llm.provider", c.LLM.Provider, "heuristic", "gemini", "openai", "ollama"); err != nil {
		return err
	}
	if (c.LLM.Provider == "gemini" || c.LLM.Provider == "openai") && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider)
	}
	if c.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("pipeline.max_concurrent must be positive")
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s: %q", field, value)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
