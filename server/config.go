package server

import (
	"time"

	"github.com/kbukum/pullpipe/validation"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string `yaml:"host" mapstructure:"host"`
	Port            int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     int    `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`         // seconds
	WriteTimeout    int    `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`       // seconds, 0 = none
	IdleTimeout     int    `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`         // seconds
	ShutdownTimeout int    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gte=0"` // seconds
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
