// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application.
type Config struct {
	Server ServerConfig
	OpenAI OpenAIConfig
	GitHub GitHubConfig
	Usage  UsageConfig
}

// ServerConfig holds HTTP server specific configuration.
type ServerConfig struct {
	Port    string
	DataDir string
}

// OpenAIConfig holds LLM provider specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token        string
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// UsageConfig holds the advisory free-extraction budget.
type UsageConfig struct {
	FreeExtractionLimit int
}

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	// Initialize Viper for environment variables
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.data_dir", "DATA_DIR")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.model", "OPENAI_MODEL")
	v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("github.client_id", "GITHUB_CLIENT_ID")
	v.BindEnv("github.client_secret", "GITHUB_CLIENT_SECRET")
	v.BindEnv("github.redirect_url", "OAUTH_REDIRECT_URL")
	v.BindEnv("usage.free_limit", "FREE_EXTRACTION_LIMIT")

	v.SetDefault("server.port", "8080")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("github.domain", "github.com")
	v.SetDefault("usage.free_limit", 5)

	// Create config structure
	config := &Config{
		Server: ServerConfig{
			Port:    v.GetString("server.port"),
			DataDir: v.GetString("server.data_dir"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  v.GetString("openai.api_key"),
			Model:   v.GetString("openai.model"),
			BaseURL: v.GetString("openai.base_url"),
		},
		GitHub: GitHubConfig{
			Token:        v.GetString("github.token"),
			Domain:       v.GetString("github.domain"),
			ClientID:     v.GetString("github.client_id"),
			ClientSecret: v.GetString("github.client_secret"),
			RedirectURL:  v.GetString("github.redirect_url"),
		},
		Usage: UsageConfig{
			FreeExtractionLimit: v.GetInt("usage.free_limit"),
		},
	}

	if config.Server.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		config.Server.DataDir = filepath.Join(home, ".task-crafter")
	}

	return config, nil
}

// ValidateOpenAIConfig validates LLM-provider-specific configuration.
func ValidateOpenAIConfig(config *Config) error {
	if config.OpenAI.APIKey == "" {
		return fmt.Errorf("missing required environment variables: [OPENAI_API_KEY]")
	}
	return nil
}

// ValidateOAuthConfig validates the GitHub OAuth application settings
// required by the login flow.
func ValidateOAuthConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.ClientID == "" {
		missingVars = append(missingVars, "GITHUB_CLIENT_ID")
	}
	if config.GitHub.ClientSecret == "" {
		missingVars = append(missingVars, "GITHUB_CLIENT_SECRET")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
