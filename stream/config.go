package stream

import "github.com/kbukum/pullpipe/validation"

// DefaultChunkSize is the chunk size used by iterators when none is set.
const DefaultChunkSize = 32 * 1024

// Config holds stream settings loadable from configuration files.
type Config struct {
	Mode              string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=binary text"`
	ChunkSize         int    `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0"`
	WaitForCompletion bool   `yaml:"wait_for_completion" mapstructure:"wait_for_completion"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = Binary.String()
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
