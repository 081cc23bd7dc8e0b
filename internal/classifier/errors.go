package classifier

import "errors"

var (
	// ErrEmptySexVocabulary means no one-hot vector can be built.
	ErrEmptySexVocabulary = errors.New("sex vocabulary is empty")
	// ErrSexIndexOutOfRange means a sex vocabulary index does not fit its one-hot vector.
	ErrSexIndexOutOfRange = errors.New("sex vocabulary index out of range")
	// ErrNegativeIndex means a vocabulary or class index is negative.
	ErrNegativeIndex = errors.New("negative vocabulary index")
	// ErrDuplicateVocabularyKey means two keys differ only by case and map to different indices.
	ErrDuplicateVocabularyKey = errors.New("vocabulary keys collide after case folding")
	// ErrIncompleteClassIndex means some model output position has no class name.
	ErrIncompleteClassIndex = errors.New("class index does not cover model output")
	// ErrInvalidImageSize means img_size is not a positive [width, height] pair.
	ErrInvalidImageSize = errors.New("invalid img_size")

	// ErrEmptyDistribution is returned when ranking an empty probability vector.
	ErrEmptyDistribution = errors.New("empty probability vector")
	// ErrInvalidTopK is returned when top_k is outside [1, len(probabilities)].
	ErrInvalidTopK = errors.New("top_k out of range")
	// ErrNonFiniteProbability is returned when the model emitted NaN or Inf.
	ErrNonFiniteProbability = errors.New("non-finite probability")
)

var configErrors = []error{
	ErrEmptySexVocabulary,
	ErrSexIndexOutOfRange,
	ErrNegativeIndex,
	ErrDuplicateVocabularyKey,
	ErrIncompleteClassIndex,
	ErrInvalidImageSize,
}

// IsConfigError reports whether err comes from a broken artifact bundle.
// Such errors are fatal at startup and never caused by request input.
func IsConfigError(err error) bool {
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
