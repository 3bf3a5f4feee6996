package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		APIURL:         "http://localhost:8080",
		TimeoutSeconds: 30,
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts a minimal valid config", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects a non-URL base address", func(t *testing.T) {
		cfg := validConfig()
		cfg.APIURL = "not a url"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "APIURL")
	})

	t.Run("rejects a zero timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.TimeoutSeconds = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "TimeoutSeconds")
	})
}
