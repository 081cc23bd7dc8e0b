// Package inference coordinates one prediction: image preprocessing,
// metadata encoding, the result cache, the model call and the ranking.
// Files by concern:
//
//   - service.go: Service type, constructor, Ready/Status/Vocabulary.
//   - config.go: Config and package defaults.
//   - predict.go: the Predict flow and response shaping.
//   - admission.go: bounded queue and concurrency slots in front of the model.
//   - errors.go: typed errors with IsXxx helpers and HTTP status codes.
//   - events.go, eventpub_memory.go, eventpub_log.go: lifecycle events.
//   - metrics.go: Prometheus collectors for predictions and the cache.
//
// The HTTP layer depends on the public methods only.
package inference
