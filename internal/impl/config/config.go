package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	StorageAttribute = "attribute"
	StorageFile      = "file"
	StorageMongo     = "mongo"

	defaultListenAddr    = ":8080"
	defaultMongoDatabase = "datamodels"
	defaultConcurrency   = 8
)

type Config struct {
	BackendURL            string
	BackendUsername       string
	BackendPassword       string
	BackendToken          string
	MongoURI              string
	MongoDatabase         string
	Storage               string
	DataDir               string
	ListenAddr            string
	GenerationConcurrency int
	LogLevel              zapcore.Level
	logger                *zap.Logger
}

var (
	configInstance *Config
	once           sync.Once
)

func InitConfig() (*Config, error) {
	var initErr error

	once.Do(func() {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err := config.Build()
		if err != nil {
			logger = zap.NewNop()
			initErr = fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		// Load .env file
		if err := godotenv.Load(); err != nil {
			if os.IsNotExist(err) {
				logger.Debug("No .env file found; falling back to system environment variables")
			} else {
				initErr = fmt.Errorf("failed to load .env file: %w", err)
				logger.Error("Config file load error", zap.Error(err))
				return
			}
		} else {
			logger.Debug("Successfully loaded .env file")
		}

		cfg, err := fromEnvironment(logger)
		if err != nil {
			initErr = err
			return
		}
		configInstance = cfg
	})

	if initErr != nil {
		return nil, initErr
	}
	if configInstance == nil {
		return nil, fmt.Errorf("configuration initialization failed unexpectedly")
	}

	return configInstance, nil
}

// fromEnvironment reads every setting from the process environment and
// resolves #{VAR}# references in the secrets.
func fromEnvironment(logger *zap.Logger) (*Config, error) {
	c := &Config{logger: logger}

	resolved, err := c.ResolveConfiguration(map[string]string{
		"BACKEND_PASSWORD": os.Getenv("BACKEND_PASSWORD"),
		"BACKEND_TOKEN":    os.Getenv("BACKEND_TOKEN"),
		"MONGO_URI":        os.Getenv("MONGO_URI"),
	})
	if err != nil {
		return nil, err
	}

	c.BackendURL = strings.TrimSuffix(os.Getenv("BACKEND_URL"), "/")
	c.BackendUsername = os.Getenv("BACKEND_USERNAME")
	c.BackendPassword = resolved["BACKEND_PASSWORD"]
	c.BackendToken = resolved["BACKEND_TOKEN"]
	c.MongoURI = resolved["MONGO_URI"]
	c.MongoDatabase = getenv("MONGO_DATABASE", defaultMongoDatabase)
	c.Storage = getenv("STORAGE", StorageAttribute)
	c.DataDir = getenv("DATA_DIR", ".")
	c.ListenAddr = getenv("LISTEN_ADDR", defaultListenAddr)

	c.GenerationConcurrency = defaultConcurrency
	if raw := os.Getenv("GENERATION_CONCURRENCY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("GENERATION_CONCURRENCY must be a positive integer, got %q", raw)
		}
		c.GenerationConcurrency = n
	}

	c.LogLevel = zapcore.WarnLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := zapcore.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		c.LogLevel = level
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.BackendURL == "" {
		logger.Warn("BACKEND_URL not set in environment variables")
	}
	if c.Storage == StorageMongo && c.MongoURI == "" {
		logger.Warn("MONGO_URI not set in environment variables")
	}
	return c, nil
}

// Validate checks the settings that do not depend on the selected mode.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageAttribute, StorageFile, StorageMongo:
	default:
		return fmt.Errorf("unknown storage %q, expected %s, %s or %s", c.Storage, StorageAttribute, StorageFile, StorageMongo)
	}
	return nil
}

// HasCredentials reports whether the backend can be logged into.
func (c *Config) HasCredentials() bool {
	return c.BackendToken != "" || (c.BackendUsername != "" && c.BackendPassword != "")
}

// NewLogger builds the development logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(c.LogLevel)
	return config.Build()
}

func (c *Config) ResolveEnvironmentVariable(value string) (string, error) {
	const prefix, suffix = "#{", "}#"
	if strings.HasPrefix(value, prefix) && strings.HasSuffix(value, suffix) {
		varName := strings.TrimSuffix(strings.TrimPrefix(value, prefix), suffix)
		if varName == "" {
			return "", fmt.Errorf("empty variable name in reference: %s", value)
		}

		resolved := os.Getenv(varName)
		if resolved == "" {
			c.logger.Warn("Environment variable not found for reference",
				zap.String("reference", value),
				zap.String("var_name", varName))
			return "", fmt.Errorf("environment variable '%s' not found", varName)
		}

		c.logger.Debug("Resolved environment variable",
			zap.String("var_name", varName),
			zap.String("resolved", maskKey(resolved)))
		return resolved, nil
	}

	return value, nil
}

func (c *Config) ResolveConfiguration(config map[string]string) (map[string]string, error) {
	resolvedConfig := make(map[string]string)
	for key, value := range config {
		resolvedValue, err := c.ResolveEnvironmentVariable(value)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve configuration for key '%s': %w", key, err)
		}
		resolvedConfig[key] = resolvedValue
	}
	return resolvedConfig, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
