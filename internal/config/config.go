// Package config loads and validates the service's configuration tree:
// the HTTP edge's listen settings, the worker pool size, chunking
// defaults, and the per-collaborator settings for object storage, OCR,
// VLM captioning, the Doc2X/PDF extractor, and the response cache.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Common configuration errors.
var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// ConfigError reports a field that failed validation at construction time
// rather than at call time — chunk_overlap >= chunk_size, an unrecognized
// storage provider, and similar construction-time rejections all take this
// shape so callers can match on it with errors.As.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// ServiceConfig holds common configuration for external HTTP service
// clients (Doc2X, the OpenAI-compatible VLM/LLM endpoint).
type ServiceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// ChunkingConfig mirrors read_config's chunking fields. ChunkSize is the
// maximum characters per chunk including any prepended header block;
// ChunkOverlap is the target overlap between adjacent chunks and must be
// strictly smaller. EnableMultimodal gates OCR/VLM post-processing.
type ChunkingConfig struct {
	ChunkSize        int      `mapstructure:"chunk_size"`
	ChunkOverlap     int      `mapstructure:"chunk_overlap"`
	Separators       []string `mapstructure:"separators"`
	EnableMultimodal bool     `mapstructure:"enable_multimodal"`
}

// DefaultChunkingConfig returns read_config's documented defaults: 512
// characters, 50 character overlap, and the "\n\n", "\n", "。" cascade.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSize:        512,
		ChunkOverlap:      50,
		Separators:       []string{"\n\n", "\n", "。"},
		EnableMultimodal: false,
	}
}

// Validate applies defaults to zero fields, then rejects a configuration
// the splitter could never satisfy.
func (c *ChunkingConfig) Validate() error {
	if c.ChunkSize == 0 {
		c.ChunkSize = 512
	}
	if len(c.Separators) == 0 {
		c.Separators = []string{"\n\n", "\n", "。"}
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return &ConfigError{Field: "chunk_overlap", Reason: "must be strictly less than chunk_size"}
	}
	return nil
}

// StorageConfig mirrors read_config.storage_config: the object-store
// provider selection plus the fields each provider needs.
type StorageConfig struct {
	Provider        string `mapstructure:"provider"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	PublicURL       string `mapstructure:"public_url"`
	LocalDir        string `mapstructure:"local_dir"`
}

// VLMConfig mirrors read_config.vlm_config.
type VLMConfig struct {
	InterfaceType string `mapstructure:"interface_type"`
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
}

// Config represents the complete application configuration.
type Config struct {
	Server struct {
		Port       int `mapstructure:"port"`
		MaxWorkers int `mapstructure:"max_workers"`
		MaxBodyMiB int `mapstructure:"max_body_mib"`
	} `mapstructure:"server"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Storage StorageConfig `mapstructure:"storage"`
	VLM     VLMConfig     `mapstructure:"vlm"`

	OCR struct {
		Backend  string `mapstructure:"backend"`
		Endpoint string `mapstructure:"endpoint"`
		APIKey   string `mapstructure:"api_key"`
	} `mapstructure:"ocr"`

	Chunking ChunkingConfig `mapstructure:"chunking"`

	Services struct {
		Doc2X      ServiceConfig `mapstructure:"doc2x"`
		Markitdown ServiceConfig `mapstructure:"markitdown"`
	} `mapstructure:"services"`
}

// Validate performs configuration validation and defaulting.
func (c *Config) Validate() error {
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking config: %w", err)
	}

	switch c.Storage.Provider {
	case "", "cos", "minio", "local", "base64":
	default:
		return &ConfigError{Field: "storage.provider", Reason: fmt.Sprintf("unknown provider %q", c.Storage.Provider)}
	}

	switch c.VLM.InterfaceType {
	case "", "openai", "ollama":
	default:
		return &ConfigError{Field: "vlm.interface_type", Reason: fmt.Sprintf("unknown interface_type %q", c.VLM.InterfaceType)}
	}

	return nil
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures sensible default values, mirroring the
// GRPC_PORT/GRPC_MAX_WORKERS/OCR_BACKEND env vars by name even though the
// edge itself is HTTP (see the RPC transport substitution design note).
func setDefaults() {
	viper.SetDefault("server.port", 50051)
	viper.BindEnv("server.port", "GRPC_PORT")
	viper.SetDefault("server.max_workers", 4)
	viper.BindEnv("server.max_workers", "GRPC_MAX_WORKERS")
	viper.SetDefault("server.max_body_mib", 50)

	viper.SetDefault("chunking.chunk_size", 512)
	viper.SetDefault("chunking.chunk_overlap", 50)
	viper.SetDefault("chunking.separators", []string{"\n\n", "\n", "。"})
	viper.SetDefault("chunking.enable_multimodal", false)

	viper.SetDefault("redis.db", 0)
	viper.BindEnv("redis.addr", "REDIS_ADDR")

	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local_dir", "./data/uploads")
	viper.BindEnv("storage.endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.access_key_id", "MINIO_ACCESS_KEY_ID")
	viper.BindEnv("storage.secret_access_key", "MINIO_SECRET_ACCESS_KEY")
	viper.BindEnv("storage.bucket_name", "MINIO_BUCKET_NAME")
	viper.BindEnv("storage.region", "COS_REGION")
	viper.BindEnv("storage.local_dir", "STORAGE_LOCAL_DIR")

	viper.SetDefault("ocr.backend", "dummy")
	viper.BindEnv("ocr.backend", "OCR_BACKEND")

	viper.SetDefault("vlm.interface_type", "openai")
}

// MustLoadConfig loads configuration and panics on failure.
// Use this only in main() or init() functions where failure should be fatal.
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
