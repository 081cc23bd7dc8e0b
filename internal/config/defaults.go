package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"skinsrv/internal/common/fsutil"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultAddr           = ":8000"
	DefaultTopK           = 3
	DefaultMaxUploadMB    = 10
	DefaultModelBackend   = "onnx"
	DefaultModelPath      = "models/skin_model.onnx"
	DefaultTimeoutSeconds = 30
	DefaultCacheBackend   = "memory"
	DefaultCacheTTL       = 3600
	DefaultCacheEntries   = 1024
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
)

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.Model.Backend == "" {
		c.Model.Backend = DefaultModelBackend
	}
	if c.Model.Backend == "onnx" && c.Model.Path == "" {
		c.Model.Path = DefaultModelPath
	}
	c.Model.Inputs = c.Model.Inputs.WithDefaults()
	if c.Model.TFServing.ModelName == "" {
		c.Model.TFServing.ModelName = "skin"
	}
	if c.Inference.TimeoutSeconds <= 0 {
		c.Inference.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = DefaultCacheBackend
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = DefaultCacheTTL
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = DefaultCacheEntries
	}
	if c.CORS.Enabled && len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"*"}
	}
	if len(c.CORS.Methods) == 0 {
		c.CORS.Methods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.Headers) == 0 {
		c.CORS.Headers = []string{"Accept", "Content-Type", "X-Request-ID"}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// FallbackOnModelError reports the effective fallback setting.
func (c Config) FallbackOnModelError() bool {
	return c.Inference.FallbackOnModelError == nil || *c.Inference.FallbackOnModelError
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// Validate rejects settings that cannot start a server.
func (c Config) Validate() error {
	switch c.Model.Backend {
	case "onnx":
		if c.Model.Path == "" {
			return fmt.Errorf("model.path is required for the onnx backend")
		}
	case "tfserving":
		if c.Model.TFServing.Endpoint == "" {
			return fmt.Errorf("model.tfserving.endpoint is required for the tfserving backend")
		}
	default:
		return fmt.Errorf("unknown model backend %q", c.Model.Backend)
	}
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch strings.ToLower(c.Model.SiteIndexType) {
	case "", "int64", "int32", "float32":
	default:
		return fmt.Errorf("unsupported model.site_index_type %q", c.Model.SiteIndexType)
	}
	return nil
}

// ResolvePaths expands '~' and makes relative file paths relative to baseDir,
// normally the directory of the config file.
func (c *Config) ResolvePaths(baseDir string) error {
	for _, p := range []*string{&c.Artifacts, &c.Model.Path, &c.Model.SharedLibrary} {
		if *p == "" {
			continue
		}
		resolved, err := fsutil.Resolve(baseDir, *p)
		if err != nil {
			return err
		}
		*p = resolved
	}
	return nil
}

// DirOf returns the directory used to resolve paths of a config loaded from path.
func DirOf(path string) string {
	if path == "" {
		return "."
	}
	return filepath.Dir(path)
}
