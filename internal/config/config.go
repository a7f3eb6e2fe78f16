package config

import (
	"encoding/json"
	"os"
	"strconv"

	"chatgate/internal/constants"
	"chatgate/internal/models"
)

var (
	ErrMissingDBPath    = models.ConfigError{Message: "missing database path"}
	ErrMissingJWTSecret = models.ConfigError{Message: "missing JWT secret (set CHATGATE_JWT_SECRET)"}
)

func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.Auth.JWTSecret) < 32 {
		return models.ConfigError{Message: "JWT secret must be at least 32 characters long"}
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}

	if c.Auth.TokenTTLSec <= 0 {
		c.Auth.TokenTTLSec = constants.DefaultTokenTTLSec
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "chatgate"
	}

	if c.Gateway.SendTimeoutSec <= 0 {
		c.Gateway.SendTimeoutSec = constants.DefaultSendTimeoutSec
	}
	if c.Gateway.ReadLimitBytes <= 0 {
		c.Gateway.ReadLimitBytes = constants.DefaultReadLimitBytes
	}
	if c.Gateway.EventBufferLen <= 0 {
		c.Gateway.EventBufferLen = constants.DefaultEventBufferLen
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if secret := os.Getenv("CHATGATE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
}
