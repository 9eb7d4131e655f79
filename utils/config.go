package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the application configuration. The API credential is not
// here: it lives in the persistent store alongside the conversations.
type Config struct {
	API  APIConfig  `json:"api"`
	Chat ChatConfig `json:"chat"`
	Data DataConfig `json:"data"`
}

// APIConfig points at the chat-completions backend.
type APIConfig struct {
	BaseURL      string `json:"base_url"`
	DefaultModel string `json:"default_model"`
}

// ChatConfig shapes requests.
type ChatConfig struct {
	SystemPrompt string `json:"system_prompt"`
}

// DataConfig locates local state.
type DataConfig struct {
	DBPath     string `json:"db_path"`
	MaxHistory int    `json:"max_history"`
}

// LoadConfig loads configuration from file.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Data.DBPath != "" {
		config.Data.DBPath = expandPath(config.Data.DBPath)
	}
	return &config, nil
}

// SaveConfig saves configuration to file.
func SaveConfig(configPath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandPath expands ~ and relative paths.
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	absPath, err := filepath.Abs(path)
	if err == nil {
		return absPath
	}
	return path
}

// GetConfigPath returns the default config path.
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./config/default.json"
	}
	return filepath.Join(configDir, "dockchat", "config.json")
}

// EnsureDefaultConfig creates a default config file if it doesn't
// exist and returns its path.
func EnsureDefaultConfig() (string, error) {
	configPath := GetConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	dataDir, err := os.UserConfigDir()
	if err != nil {
		dataDir = "."
	}

	defaultConfig := &Config{
		API: APIConfig{
			BaseURL:      "https://openrouter.ai/api/v1",
			DefaultModel: "openai/gpt-5-chat",
		},
		Chat: ChatConfig{
			SystemPrompt: "You are a helpful assistant.",
		},
		Data: DataConfig{
			DBPath:     filepath.Join(dataDir, "dockchat", "store.db"),
			MaxHistory: 1000,
		},
	}

	if err := SaveConfig(configPath, defaultConfig); err != nil {
		return "", err
	}
	return configPath, nil
}
