package inference

import "github.com/rs/zerolog"

// LogPublisher writes events to a zerolog logger. Model errors and
// fallbacks log at warn, everything else at debug.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(l zerolog.Logger) *LogPublisher { return &LogPublisher{log: l} }

func (p *LogPublisher) Publish(e Event) {
	ev := p.log.Debug()
	if e.Name == EventModelError || e.Name == EventFallback {
		ev = p.log.Warn()
	}
	if e.AnalysisID != "" {
		ev = ev.Str("analysis_id", e.AnalysisID)
	}
	ev.Fields(e.Fields).Msg(e.Name)
}
