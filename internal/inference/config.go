package inference

import (
	"time"

	"skinsrv/internal/cache"
	"skinsrv/internal/classifier"
	"skinsrv/internal/model"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultTopK          = 3
	defaultModelTimeout  = 30 * time.Second
	defaultReadyTimeout  = 2 * time.Second
	defaultMaxImageBytes = 10 << 20
	defaultCacheTTL      = time.Hour
	defaultQueueWait     = 5 * time.Second
)

// Config encapsulates the collaborators and tunables of a Service.
type Config struct {
	Bundle *classifier.Bundle
	Model  model.Model
	// Cache may be nil to disable result caching.
	Cache cache.Cache
	// CacheTTL 0 selects one hour; a negative value stores without expiry.
	CacheTTL time.Duration
	// DefaultTopK is used when a request does not ask for a count.
	DefaultTopK   int
	ModelTimeout  time.Duration
	ReadyTimeout  time.Duration
	MaxImageBytes int64
	// FailOnModelError turns model failures into errors instead of the
	// uniform fallback answer.
	FailOnModelError bool
	// MaxConcurrent caps model calls in flight; 0 disables admission control.
	MaxConcurrent int
	// MaxQueue caps running plus waiting calls. Values below MaxConcurrent are raised to it.
	MaxQueue int
	// QueueWait is how long a request may wait for a place before a 429.
	QueueWait time.Duration
	Publisher EventPublisher
}

func (c Config) withDefaults() Config {
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = defaultTopK
	}
	if c.ModelTimeout <= 0 {
		c.ModelTimeout = defaultModelTimeout
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = defaultMaxImageBytes
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = 0
	} else if c.CacheTTL == 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.QueueWait <= 0 {
		c.QueueWait = defaultQueueWait
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
