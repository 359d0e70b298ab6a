package main

import (
	"time"

	"github.com/kbukum/pullpipe/config"
	"github.com/kbukum/pullpipe/observability"
	"github.com/kbukum/pullpipe/server"
	"github.com/kbukum/pullpipe/stream"
	"github.com/kbukum/pullpipe/validation"
)

// Config is the pullpipe service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config            `yaml:"server" mapstructure:"server"`
	Stream        stream.Config            `yaml:"stream" mapstructure:"stream"`
	Archive       ArchiveConfig            `yaml:"archive" mapstructure:"archive"`
	Commands      map[string]CommandConfig `yaml:"commands" mapstructure:"commands" validate:"dive"`
	Observability observability.Config     `yaml:"observability" mapstructure:"observability"`
}

// ArchiveConfig limits archive downloads to one directory tree.
type ArchiveConfig struct {
	Root string `yaml:"root" mapstructure:"root" validate:"required,dir"`
}

// CommandConfig is a named command whose output can be downloaded.
type CommandConfig struct {
	Binary      string        `yaml:"binary" mapstructure:"binary" validate:"required"`
	Args        []string      `yaml:"args" mapstructure:"args"`
	Dir         string        `yaml:"dir" mapstructure:"dir"`
	ContentType string        `yaml:"content_type" mapstructure:"content_type"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults fills unset fields in every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Stream.ApplyDefaults()
	c.Observability.ApplyDefaults()
	for name, cmd := range c.Commands {
		if cmd.ContentType == "" {
			cmd.ContentType = "application/octet-stream"
		}
		c.Commands[name] = cmd
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}
