// Package classifier is the deterministic core between raw request fields and
// model tensors, and between raw model output and the ranked response.
//
//   - artifacts.go: Bundle, the read-only preprocessing artifacts produced at
//     training time (vocabularies, age normalization, class names, image size).
//   - encode.go: age normalization and sex/site categorical encoding.
//   - rank.go: stable top-K ranking and the uncertainty flag.
//   - response.go: the two response shapes served over HTTP.
//   - errors.go: configuration and ranking errors.
//
// All vocabularies are stored in lower case and every lookup lower-cases its
// input first. Nothing in this package performs I/O except Load, and nothing
// mutates a Bundle after construction, so a single Bundle is shared by all
// request goroutines without locking.
package classifier
