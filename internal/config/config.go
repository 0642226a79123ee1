package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	JWT        JWTConfig
	STT        STTConfig
	LLM        LLMConfig
	Processing ProcessingConfig
	Upload     UploadConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type STTConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
}

type LLMConfig struct {
	Provider  string          `mapstructure:"provider"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type ProcessingConfig struct {
	OrchestratorMaxRetries int           `mapstructure:"orchestrator_max_retries"`
	NotReadyBackoff        time.Duration `mapstructure:"not_ready_backoff"`
	FailureBackoff         time.Duration `mapstructure:"failure_backoff"`
	TranscriptionBackoff   time.Duration `mapstructure:"transcription_backoff"`
	NoteBackoff            time.Duration `mapstructure:"note_backoff"`
	JobTimeout             time.Duration `mapstructure:"job_timeout"`
	LockTTL                time.Duration `mapstructure:"lock_ttl"`
}

type UploadConfig struct {
	MaxSizeMB int64 `mapstructure:"max_size_mb"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("storage.bucket", "recordings")
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("stt.base_url", "https://api.openai.com/v1")
	viper.SetDefault("stt.model", "whisper-1")
	viper.SetDefault("stt.language", "en")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.openai.model", "gpt-4o")
	viper.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com")
	viper.SetDefault("llm.anthropic.model", "claude-sonnet-4-20250514")
	viper.SetDefault("llm.ollama.base_url", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "llama3.1")
	viper.SetDefault("processing.orchestrator_max_retries", 2)
	viper.SetDefault("processing.not_ready_backoff", time.Minute)
	viper.SetDefault("processing.failure_backoff", 2*time.Minute)
	viper.SetDefault("processing.transcription_backoff", time.Minute)
	viper.SetDefault("processing.note_backoff", 30*time.Second)
	viper.SetDefault("processing.job_timeout", 10*time.Minute)
	viper.SetDefault("processing.lock_ttl", 10*time.Minute)
	viper.SetDefault("upload.max_size_mb", 100)
}
