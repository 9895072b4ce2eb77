package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Trello  TrelloConfig  `mapstructure:"trello" validate:"required"`
	Journal JournalConfig `mapstructure:"journal"`
	Options OptionsConfig `mapstructure:"options"`
	Output  OutputConfig  `mapstructure:"output"`
}

// TrelloConfig holds API credentials and the source board
type TrelloConfig struct {
	BoardID  string `mapstructure:"board_id" validate:"required"`
	APIKey   string `mapstructure:"api_key" validate:"required"`
	APIToken string `mapstructure:"api_token" validate:"required"`
}

// JournalConfig holds target journal settings
type JournalConfig struct {
	Name string `mapstructure:"name"`
}

// OptionsConfig holds migration behavior settings
type OptionsConfig struct {
	IncludeArchived    bool     `mapstructure:"include_archived"`
	IncludeAttachments bool     `mapstructure:"include_attachments"`
	ListFilter         []string `mapstructure:"list_filter"`
	IgnorePatterns     []string `mapstructure:"ignore_patterns"`
}

// OutputConfig holds archive output settings
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Filename string `mapstructure:"filename"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Journal: JournalConfig{
			Name: "Journal",
		},
		Options: OptionsConfig{
			IncludeAttachments: true,
		},
		Output: OutputConfig{
			Dir:      "output",
			Filename: "Journal.zip",
		},
	}
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("journal.name", defaults.Journal.Name)
	v.SetDefault("options.include_archived", defaults.Options.IncludeArchived)
	v.SetDefault("options.include_attachments", defaults.Options.IncludeAttachments)
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.filename", defaults.Output.Filename)

	// Configure config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	// Enable environment variable substitution
	v.AutomaticEnv()
	v.SetEnvPrefix("TRELLO2DAYONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file. Credentials have no usable default, so a missing
	// file is fatal with a hint instead of a bare not-found error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %w (copy config.example.yaml to config.yaml and fill in your Trello credentials)", err)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand environment variables in credentials so the token can live in
	// the environment rather than the file
	cfg.Trello.APIKey = os.ExpandEnv(cfg.Trello.APIKey)
	cfg.Trello.APIToken = os.ExpandEnv(cfg.Trello.APIToken)

	// Expand output path
	cfg.Output.Dir = expandPath(cfg.Output.Dir)

	// Validate
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// getConfigDir returns the appropriate config directory for the OS
func getConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "trello2dayone")
		}
		return filepath.Join(os.Getenv("USERPROFILE"), ".config", "trello2dayone")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "trello2dayone")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "trello2dayone")
	}
}

// GetConfigDir returns the per-user config directory, creating it if needed
func GetConfigDir() (string, error) {
	dir := getConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// expandPath expands ~ and environment variables in a path
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path)
}
