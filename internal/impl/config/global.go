package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/drujensen/datamodels/internal/domain/entities"

	"go.uber.org/zap"
)

// GlobalConfig holds per-user defaults for the generation settings.
type GlobalConfig struct {
	DefaultCount  int    `json:"default_count"`
	DefaultPrefix string `json:"default_prefix"`
}

func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		DefaultCount:  1,
		DefaultPrefix: "",
	}
}

// Settings converts the defaults into generation settings.
func (g *GlobalConfig) Settings() entities.AutoGeneratingSettings {
	return entities.AutoGeneratingSettings{Count: g.DefaultCount, Prefix: g.DefaultPrefix}
}

func globalConfigPath() (string, string) {
	configDir := filepath.Join(os.Getenv("HOME"), ".config", "datamodels")
	return configDir, filepath.Join(configDir, "datamodels.json")
}

// LoadGlobalConfig loads the global configuration from ~/.config/datamodels/datamodels.json
func LoadGlobalConfig(logger *zap.Logger) (*GlobalConfig, error) {
	_, configPath := globalConfigPath()

	config := DefaultGlobalConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("Global config file does not exist, using defaults", zap.String("path", configPath))
			return config, nil
		}
		return nil, fmt.Errorf("failed to read global config file: %w", err)
	}

	if err := json.Unmarshal(data, &config); err != nil {
		logger.Warn("Failed to parse global config file, using defaults", zap.Error(err), zap.String("path", configPath))
		return DefaultGlobalConfig(), nil
	}
	if config.DefaultCount < 1 {
		config.DefaultCount = 1
	}

	logger.Debug("Loaded global config", zap.String("path", configPath))
	return config, nil
}

// SaveGlobalConfig saves the global configuration to ~/.config/datamodels/datamodels.json
func SaveGlobalConfig(config *GlobalConfig, logger *zap.Logger) error {
	configDir, configPath := globalConfigPath()

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	logger.Debug("Saved global config", zap.String("path", configPath))
	return nil
}
