// Package config loads service configuration from a YAML file, a .env file
// and the environment.
//
// Load resolves config.yml and .env in the usual project locations, reads
// them with Viper and godotenv, and binds every mapstructure key of the
// target struct to an environment variable:
//
//	type Config struct {
//		config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//		Stream stream.Config `yaml:"stream" mapstructure:"stream"`
//	}
//
//	var cfg Config
//	err := config.Load("pullpipe", &cfg)
//
// With the service name "pullpipe", stream.chunk_size is read from
// PULLPIPE_STREAM_CHUNK_SIZE. Use WithEnvPrefix to pick another prefix.
//
// Structs implementing Defaulter and Validator are defaulted and validated
// after unmarshalling.
package config
