package types

import (
	"encoding/json"
	"strconv"
)

// ClassProb is one ranked diagnostic class.
type ClassProb struct {
	// Diagnostic class name.
	// example: NV
	Class string `json:"class" example:"NV"`
	// Model probability for the class.
	// example: 0.71
	Prob float64 `json:"prob" example:"0.71"`
}

// TopKResponse is returned by POST /predict. It serializes as
// {"top3": [...]} where the key carries the number of results.
type TopKResponse struct {
	K       int
	Results []ClassProb
	// Fallback is true when the model failed and a uniform distribution was ranked.
	Fallback bool
}

// Key returns the JSON key for the result list, e.g. "top3".
func (r TopKResponse) Key() string { return "top" + strconv.Itoa(r.K) }

func (r TopKResponse) MarshalJSON() ([]byte, error) {
	res := r.Results
	if res == nil {
		res = []ClassProb{}
	}
	m := map[string]any{r.Key(): res}
	if r.Fallback {
		m["fallback"] = true
	}
	return json.Marshal(m)
}

// SummaryResponse is returned by POST /predict/summary.
type SummaryResponse struct {
	// Highest ranked class.
	Top1 ClassProb `json:"top1"`
	// Second ranked class.
	Top2 ClassProb `json:"top2"`
	// Probability of every class keyed by class name.
	AllProbs map[string]float64 `json:"all_probs"`
	// True when the top probability is below 0.60 or leads the runner-up by less than 0.10.
	// example: false
	Uncertain bool `json:"uncertain" example:"false"`
	// True when the model failed and a uniform distribution was ranked.
	Fallback bool `json:"fallback,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: file is required
	Error string `json:"error" example:"file is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: ok
	Status string `json:"status" example:"ok"`
}

// VocabularyResponse lists the values the encoder recognizes.
type VocabularyResponse struct {
	// Sex vocabulary in index order. Inputs f/female/mujer and m/male/hombre are folded onto female/male.
	Sexes []string `json:"sexes"`
	// Anatomical sites in index order. Unknown sites map to "other".
	Sites []string `json:"sites"`
	// Diagnostic classes in model output order.
	Classes []string `json:"classes"`
	// Image width the model expects.
	// example: 224
	ImageWidth int `json:"image_width" example:"224"`
	// Image height the model expects.
	// example: 224
	ImageHeight int `json:"image_height" example:"224"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Model backend name.
	// example: onnx
	Backend string `json:"backend" example:"onnx"`
	// Whether the model backend answered its last health probe.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Number of diagnostic classes.
	// example: 4
	Classes int `json:"classes" example:"4"`
	// Cache backend name (none, memory, redis).
	// example: memory
	Cache string `json:"cache" example:"memory"`
	// Predictions served since start.
	// example: 120
	PredictionsTotal uint64 `json:"predictions_total" example:"120"`
	// Predictions answered with the uniform fallback.
	// example: 1
	FallbacksTotal uint64 `json:"fallbacks_total" example:"1"`
	// Predictions answered from the cache.
	// example: 14
	CacheHitsTotal uint64 `json:"cache_hits_total" example:"14"`
	// Model calls running now.
	// example: 1
	InFlight int `json:"in_flight" example:"1"`
	// Requests waiting for a model slot.
	// example: 0
	Queued int `json:"queued" example:"0"`
	// Requests rejected with 429 because no slot freed up in time.
	// example: 0
	RejectedTotal uint64 `json:"rejected_total" example:"0"`
	// Last model error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
