package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SKINSRV_"

// ApplyEnv overrides fields from SKINSRV_* variables looked up with getenv.
// Unset or empty variables leave the field alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("ADDR", &c.Addr)
	str("ARTIFACTS", &c.Artifacts)
	str("MODEL_BACKEND", &c.Model.Backend)
	str("MODEL_PATH", &c.Model.Path)
	str("ONNXRUNTIME_LIB", &c.Model.SharedLibrary)
	str("TFSERVING_ENDPOINT", &c.Model.TFServing.Endpoint)
	str("TFSERVING_MODEL", &c.Model.TFServing.ModelName)
	str("TFSERVING_TOKEN", &c.Model.TFServing.Token)
	str("CACHE_BACKEND", &c.Cache.Backend)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	for name, dst := range map[string]*int{
		"TOP_K":             &c.TopK,
		"MAX_UPLOAD_MB":     &c.MaxUploadMB,
		"INFER_TIMEOUT_SEC": &c.Inference.TimeoutSeconds,
		"CACHE_TTL_SEC":     &c.Cache.TTLSeconds,
		"MAX_CONCURRENT":    &c.Inference.MaxConcurrent,
		"MAX_QUEUE":         &c.Inference.MaxQueue,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}

	if v := strings.TrimSpace(getenv(EnvPrefix + "FALLBACK_ON_MODEL_ERROR")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sFALLBACK_ON_MODEL_ERROR: %w", EnvPrefix, err)
		}
		c.Inference.FallbackOnModelError = &b
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "CORS_ORIGINS")); v != "" {
		c.CORS.Enabled = true
		c.CORS.Origins = SplitCSV(v)
	}
	return nil
}

// SplitCSV splits a comma-separated list, trimming spaces and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
