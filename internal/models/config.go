package models

// ConfigError indicates an invalid or incomplete configuration
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

type Config struct {
	LogLevel string         `json:"logLevel"`
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Gateway  GatewayConfig  `json:"gateway"`
	Retry    RetryConfig    `json:"retry"`
	Tracing  TracingConfig  `json:"tracing"`
}

type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"readTimeoutSec"`
	WriteTimeoutSec int `json:"writeTimeoutSec"`
	IdleTimeoutSec  int `json:"idleTimeoutSec"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type AuthConfig struct {
	// JWTSecret is normally supplied via CHATGATE_JWT_SECRET
	JWTSecret   string `json:"-"`
	TokenTTLSec int    `json:"tokenTtlSec"`
	Issuer      string `json:"issuer"`
}

type GatewayConfig struct {
	AllowedOrigins []string `json:"allowedOrigins"`
	SendTimeoutSec int      `json:"sendTimeoutSec"`
	ReadLimitBytes int64    `json:"readLimitBytes"`
	EventBufferLen int      `json:"eventBufferLen"`
}

type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

type TracingConfig struct {
	ServiceName    string  `json:"serviceName"`
	ServiceVersion string  `json:"serviceVersion"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlpEndpoint"`
	SampleRate     float64 `json:"sampleRate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"useStdout"`
}
