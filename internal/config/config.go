package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Discovery
	DiscoveryK             int     // Neighbors persisted per item (default: 10)
	DiscoveryMinSimilarity float64 // Cosine similarity floor (default: 0.5)
	DiscoveryCron          string  // Cron expression for the background sweep

	// Embeddings: model identifier -> fixed vector dimensionality
	EmbeddingModels map[string]int

	// Tags
	TagCacheTTL time.Duration

	// Paths
	DatabaseFile string // $CONFIG_DIR/mediarr.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("DISCOVERY_K", 10)
	viper.SetDefault("DISCOVERY_MIN_SIMILARITY", 0.5)
	viper.SetDefault("DISCOVERY_CRON", "0 */6 * * *")
	viper.SetDefault("EMBEDDING_MODELS", "gte-large-v1.5:1024")
	viper.SetDefault("TAG_CACHE_TTL_MINUTES", 10)
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "mediarr")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	models, err := parseModelDims(viper.GetString("EMBEDDING_MODELS"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		DiscoveryK:             viper.GetInt("DISCOVERY_K"),
		DiscoveryMinSimilarity: viper.GetFloat64("DISCOVERY_MIN_SIMILARITY"),
		DiscoveryCron:          viper.GetString("DISCOVERY_CRON"),
		EmbeddingModels:        models,
		TagCacheTTL:            time.Duration(viper.GetInt("TAG_CACHE_TTL_MINUTES")) * time.Minute,
		DatabaseFile:           filepath.Join(configDir, "mediarr.db"),
		LogLevel:               viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.DiscoveryK <= 0 {
		return nil, fmt.Errorf("DISCOVERY_K must be positive")
	}
	if config.DiscoveryMinSimilarity < -1 || config.DiscoveryMinSimilarity > 1 {
		return nil, fmt.Errorf("DISCOVERY_MIN_SIMILARITY must be within [-1, 1]")
	}
	if len(config.EmbeddingModels) == 0 {
		return nil, fmt.Errorf("EMBEDDING_MODELS is required")
	}

	return config, nil
}

// parseModelDims parses a comma-separated list of model:dimensions pairs,
// e.g. "gte-large-v1.5:1024,voyage-3-lite:512"
func parseModelDims(raw string) (map[string]int, error) {
	models := make(map[string]int)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, dimsStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("EMBEDDING_MODELS entry %q must be model:dimensions", pair)
		}
		dims, err := strconv.Atoi(strings.TrimSpace(dimsStr))
		if err != nil || dims <= 0 {
			return nil, fmt.Errorf("EMBEDDING_MODELS entry %q has invalid dimensions", pair)
		}
		models[strings.TrimSpace(name)] = dims
	}
	return models, nil
}
