// Package validation validates configuration structs and request input,
// returning INVALID_INPUT errors from the errors package.
//
// Struct validation uses go-playground/validator tags and reports fields by
// their mapstructure names, so messages match the keys users write in
// config.yml:
//
//	type Config struct {
//	    ChunkSize int `mapstructure:"chunk_size" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg) // "chunk_size: must be at least 1"
package validation
