package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string

	ServerAddr string

	// Completion provider settings. Can be overridden by deepvision.yaml.
	Provider ProviderConfig
}

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Referer string `yaml:"referer"`
	Title   string `yaml:"title"`
}

func LoadConfig() Config {
	// .env is optional; system environment always wins.
	_ = godotenv.Load()

	cfg := Config{
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "deepvision"),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		ServerAddr: getEnv("SERVER_ADDR", ":8000"),
		Provider: ProviderConfig{
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:  getEnv("DEEPSEEK_API_KEY", ""),
			Model:   getEnv("COMPLETION_MODEL", "deepseek/deepseek-chat-v3.1:free"),
		},
	}

	// Optional provider overrides from deepvision.yaml next to the binary.
	if data, err := os.ReadFile("deepvision.yaml"); err == nil {
		var file struct {
			Provider ProviderConfig `yaml:"provider"`
		}
		if err := yaml.Unmarshal(data, &file); err == nil {
			mergeProvider(&cfg.Provider, file.Provider)
		}
	}

	return cfg
}

func mergeProvider(dst *ProviderConfig, src ProviderConfig) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Referer != "" {
		dst.Referer = src.Referer
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}
