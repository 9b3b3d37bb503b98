package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound     = goerr.New("configuration file not found")
	ErrInvalidConfig      = goerr.New("invalid configuration")
	ErrMissingAPIKey      = goerr.New("API key is required")
	ErrDuplicateContentID = goerr.New("duplicate content ID")
	ErrInvalidProvider    = goerr.New("invalid provider")
)

// Context keys for error values
const (
	ConfigPathKey   = "config_path"
	ContentIDKey    = "content_id"
	ContentIndexKey = "content_index"
	ProviderKey     = "provider"
)
