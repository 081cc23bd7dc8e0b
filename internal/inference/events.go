package inference

// Event represents one prediction lifecycle event.
type Event struct {
	Name       string
	AnalysisID string
	Fields     map[string]any
}

// Event names.
const (
	EventPrediction = "prediction"
	EventFallback   = "fallback"
	EventCacheHit   = "cache_hit"
	EventModelError = "model_error"
)

// EventPublisher receives events from the service. Publish must not block
// or panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
