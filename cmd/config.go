package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stridehq/stride/models"
	"github.com/stridehq/stride/store"
	"github.com/stridehq/stride/types"
)

const (
	configName = ".stride"
	envPrefix  = "STRIDE"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present; absence is fine.
	_ = godotenv.Load()

	// Environment variable handling must be set up BEFORE reading the config
	// file so env vars can influence config loading.
	viper.SetEnvPrefix(envPrefix) // e.g., STRIDE_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config")

	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(".")        // ./.stride.yaml
		viper.AddConfigPath(home)       // $HOME/.stride.yaml
		viper.SetConfigName(configName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			} else if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowedOrigins", []string{"http://localhost:3000"})

	viper.SetDefault("data.backend", "file")
	viper.SetDefault("data.dir", ".stride")
	viper.SetDefault("data.file", "goals.json")
	viper.SetDefault("data.format", "json")

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.modelName", "")
	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.baseURL", "")
	viper.SetDefault("llm.maxOutputTokens", 4096)
	viper.SetDefault("llm.temperature", 0.7)

	viper.SetDefault("prompts.templatesDir", "")

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}

	if err := models.ValidateStruct(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the loaded application configuration.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}

// GetStore initializes and returns the goal store for the configured backend.
func GetStore() (store.GoalStore, error) {
	config := GetConfig()

	switch config.Data.Backend {
	case "memory":
		s := store.NewMemoryGoalStore()
		if err := s.Initialize(nil); err != nil {
			return nil, err
		}
		return s, nil

	case "sqlite":
		s, err := store.NewSQLiteGoalStore(config.Data.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store in %s: %w", config.Data.Dir, err)
		}
		return s, nil

	default:
		s := store.NewFileGoalStore()
		goalFilePath := filepath.Join(config.Data.Dir, config.Data.File)
		err := s.Initialize(map[string]string{
			"dataFile":       goalFilePath,
			"dataFileFormat": config.Data.Format,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize store at %s: %w", goalFilePath, err)
		}
		return s, nil
	}
}
