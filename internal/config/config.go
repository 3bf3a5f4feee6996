package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"ragchat/internal/apperr"
)

// Config holds everything the client needs at process start.
type Config struct {
	// APIURL is the base URL of the chat backend.
	APIURL string `mapstructure:"RAGCHAT_API_URL" validate:"required,url"`
	// APIKey is attached to every request as the X-API-Key header.
	APIKey string `mapstructure:"RAGCHAT_API_KEY"`
	// AuthToken is an optional static bearer token used when the token
	// file holds none.
	AuthToken string `mapstructure:"RAGCHAT_AUTH_TOKEN"`
	// TimeoutSeconds bounds every non-streaming request.
	TimeoutSeconds int    `mapstructure:"RAGCHAT_TIMEOUT_SECONDS" validate:"gt=0"`
	TokenFile      string `mapstructure:"RAGCHAT_TOKEN_FILE"`
	LogLevel       string `mapstructure:"RAGCHAT_LOG_LEVEL"`
	LogFile        string `mapstructure:"RAGCHAT_LOG_FILE"`
}

// Load reads configuration from an optional .env file, environment
// variables, and defaults, in that order of increasing precedence for the
// environment over the file.
func Load() (*Config, error) {
	viper.SetDefault("RAGCHAT_API_URL", "http://localhost:8080")
	viper.SetDefault("RAGCHAT_API_KEY", "")
	viper.SetDefault("RAGCHAT_AUTH_TOKEN", "")
	viper.SetDefault("RAGCHAT_TIMEOUT_SECONDS", 30)
	viper.SetDefault("RAGCHAT_TOKEN_FILE", defaultTokenFile())
	viper.SetDefault("RAGCHAT_LOG_LEVEL", "INFO")
	viper.SetDefault("RAGCHAT_LOG_FILE", defaultLogFile())

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values against the struct's validation tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", apperr.ErrValidation, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ragchat", "token")
	}
	return filepath.Join(dir, "ragchat", "token")
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ragchat", "ragchat.log")
	}
	return filepath.Join(dir, "ragchat", "ragchat.log")
}
