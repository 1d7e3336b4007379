package api

import (
	"os"
	"time"

	"github.com/marmos91/servr/internal/bytesize"
	"github.com/marmos91/servr/pkg/api/middleware"
)

// EnvJWTSecret overrides APIConfig.JWT.Secret.
const EnvJWTSecret = "SERVR_API_JWT_SECRET"

// DefaultMaxUploadSize bounds a single upload when MaxUploadSize is unset.
const DefaultMaxUploadSize = 100 * bytesize.MiB

// APIConfig configures the REST API HTTP server.
type APIConfig struct {
	// Port is the HTTP port for the API endpoints.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Uploads must fit in it.
	// Default: 5m
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 5m
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// RequestTimeout cancels the context of a request that runs longer.
	// Default: 2m
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// MaxUploadSize is the largest accepted file, e.g. "100MiB".
	// Default: 100MiB
	MaxUploadSize bytesize.ByteSize `mapstructure:"max_upload_size" yaml:"max_upload_size"`

	JWT       JWTConfig                  `mapstructure:"jwt" yaml:"jwt"`
	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// JWTConfig configures token signing. The secret is usually supplied through
// SERVR_API_JWT_SECRET rather than the config file.
type JWTConfig struct {
	Secret               string        `mapstructure:"secret" yaml:"secret,omitempty"`
	Issuer               string        `mapstructure:"issuer" yaml:"issuer"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" yaml:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" yaml:"refresh_token_duration"`
}

// GetJWTSecret returns the signing secret, preferring the environment.
func (c *APIConfig) GetJWTSecret() string {
	if s := os.Getenv(EnvJWTSecret); s != "" {
		return s
	}
	return c.JWT.Secret
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *APIConfig) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Minute
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 2 * time.Minute
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "servr"
	}
	if c.JWT.AccessTokenDuration == 0 {
		c.JWT.AccessTokenDuration = 30 * time.Minute
	}
	if c.JWT.RefreshTokenDuration == 0 {
		c.JWT.RefreshTokenDuration = 7 * 24 * time.Hour
	}
}
