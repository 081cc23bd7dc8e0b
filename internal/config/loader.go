package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"skinsrv/internal/model"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// Artifacts is the preprocessing artifacts JSON. Empty uses the training defaults.
	Artifacts   string `json:"artifacts" yaml:"artifacts" toml:"artifacts"`
	TopK        int    `json:"top_k" yaml:"top_k" toml:"top_k"`
	MaxUploadMB int    `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`

	Model     ModelConfig     `json:"model" yaml:"model" toml:"model"`
	Inference InferenceConfig `json:"inference" yaml:"inference" toml:"inference"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" toml:"cache"`
	CORS      CORSConfig      `json:"cors" yaml:"cors" toml:"cors"`
	Log       LogConfig       `json:"log" yaml:"log" toml:"log"`
}

// ModelConfig selects the model backend.
type ModelConfig struct {
	// Backend is "onnx" or "tfserving".
	Backend string `json:"backend" yaml:"backend" toml:"backend"`
	// Path is the .onnx file for the onnx backend.
	Path          string           `json:"path" yaml:"path" toml:"path"`
	SharedLibrary string           `json:"shared_library" yaml:"shared_library" toml:"shared_library"`
	Output        string           `json:"output" yaml:"output" toml:"output"`
	SiteIndexType string           `json:"site_index_type" yaml:"site_index_type" toml:"site_index_type"`
	Inputs        model.InputNames `json:"inputs" yaml:"inputs" toml:"inputs"`
	TFServing     TFServingConfig  `json:"tfserving" yaml:"tfserving" toml:"tfserving"`
}

// TFServingConfig points at a TensorFlow Serving REST endpoint.
type TFServingConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	ModelName string `json:"model_name" yaml:"model_name" toml:"model_name"`
	Version   string `json:"version" yaml:"version" toml:"version"`
	Signature string `json:"signature" yaml:"signature" toml:"signature"`
	Token     string `json:"token" yaml:"token" toml:"token"`
}

type InferenceConfig struct {
	TimeoutSeconds      int `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	ReadyTimeoutSeconds int `json:"ready_timeout_seconds" yaml:"ready_timeout_seconds" toml:"ready_timeout_seconds"`
	// MaxConcurrent caps model calls in flight; 0 means unlimited.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" toml:"max_concurrent"`
	MaxQueue      int `json:"max_queue" yaml:"max_queue" toml:"max_queue"`
	// QueueWaitMS bounds the wait for a model slot before answering 429.
	QueueWaitMS int `json:"queue_wait_ms" yaml:"queue_wait_ms" toml:"queue_wait_ms"`
	// FallbackOnModelError answers model failures with a uniform, uncertain
	// prediction. Nil means true.
	FallbackOnModelError *bool `json:"fallback_on_model_error" yaml:"fallback_on_model_error" toml:"fallback_on_model_error"`
}

type CacheConfig struct {
	// Backend is "none", "memory" or "redis".
	Backend string `json:"backend" yaml:"backend" toml:"backend"`
	// TTLSeconds of 0 selects the default; a negative value keeps entries until evicted.
	TTLSeconds    int    `json:"ttl_seconds" yaml:"ttl_seconds" toml:"ttl_seconds"`
	MaxEntries    int    `json:"max_entries" yaml:"max_entries" toml:"max_entries"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr" toml:"redis_addr"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" toml:"redis_db"`
	RedisPassword string `json:"redis_password" yaml:"redis_password" toml:"redis_password"`
	KeyPrefix     string `json:"key_prefix" yaml:"key_prefix" toml:"key_prefix"`
}

// CORSConfig is opt-in; when disabled no CORS middleware is installed.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

type LogConfig struct {
	// Level is a zerolog level name.
	Level string `json:"level" yaml:"level" toml:"level"`
	// Format is "json" or "console".
	Format string `json:"format" yaml:"format" toml:"format"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
