package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Training-time defaults applied when a key is absent from the artifact document.
const (
	DefaultAgeMean   = 60.0
	DefaultAgeStd    = 16.0
	DefaultImageSize = 224
)

// Fallback vocabulary keys. Both are lower case like the rest of the vocabularies.
const (
	UnknownSex = "unknown"
	OtherSite  = "other"
)

func defaultSexIndex() map[string]int {
	return map[string]int{"male": 0, "female": 1, UnknownSex: 2}
}

func defaultSiteIndex() map[string]int { return map[string]int{OtherSite: 0} }

func defaultClassIndex() map[int]string {
	return map[int]string{0: "MEL", 1: "NV", 2: "BCC", 3: "BKL"}
}

// Document mirrors preprocess_artifacts.json as written by the training job.
// Pointer and nil-map fields distinguish "absent" (default applies) from an
// explicit value.
type Document struct {
	Sex2Idx   map[string]int    `json:"sex2idx"`
	Site2Idx  map[string]int    `json:"site2idx"`
	AgeMean   *float64          `json:"age_mean"`
	AgeStd    *float64          `json:"age_std"`
	Class2Idx map[string]int    `json:"class2idx"`
	Idx2Class map[string]string `json:"idx2class"`
	ImgSize   []int             `json:"img_size"`
}

// Bundle is the validated, immutable artifact bundle.
type Bundle struct {
	sexToIndex  map[string]int
	siteToIndex map[string]int
	ageMean     float64
	ageStd      float64
	classNames  map[int]string
	width       int
	height      int
}

// Load reads and validates an artifact document from disk.
func Load(path string) (*Bundle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifacts: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates an artifact document.
func Parse(data []byte) (*Bundle, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse artifacts: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument applies defaults and validates doc. The returned Bundle owns
// copies of every map in doc.
func FromDocument(doc Document) (*Bundle, error) {
	b := &Bundle{
		ageMean: DefaultAgeMean,
		ageStd:  DefaultAgeStd,
		width:   DefaultImageSize,
		height:  DefaultImageSize,
	}

	if doc.Sex2Idx == nil {
		b.sexToIndex = defaultSexIndex()
	} else {
		idx, err := lowerKeys("sex2idx", doc.Sex2Idx)
		if err != nil {
			return nil, err
		}
		b.sexToIndex = idx
	}
	if len(b.sexToIndex) == 0 {
		return nil, ErrEmptySexVocabulary
	}
	for k, v := range b.sexToIndex {
		if v < 0 || v >= len(b.sexToIndex) {
			return nil, fmt.Errorf("sex2idx[%q]=%d: %w", k, v, ErrSexIndexOutOfRange)
		}
	}

	if doc.Site2Idx == nil {
		b.siteToIndex = defaultSiteIndex()
	} else {
		idx, err := lowerKeys("site2idx", doc.Site2Idx)
		if err != nil {
			return nil, err
		}
		b.siteToIndex = idx
	}
	for k, v := range b.siteToIndex {
		if v < 0 {
			return nil, fmt.Errorf("site2idx[%q]=%d: %w", k, v, ErrNegativeIndex)
		}
	}

	if doc.AgeMean != nil {
		b.ageMean = *doc.AgeMean
	}
	if doc.AgeStd != nil {
		b.ageStd = *doc.AgeStd
	}

	names, err := classNamesFrom(doc)
	if err != nil {
		return nil, err
	}
	b.classNames = names

	if doc.ImgSize != nil {
		if len(doc.ImgSize) != 2 || doc.ImgSize[0] <= 0 || doc.ImgSize[1] <= 0 {
			return nil, fmt.Errorf("%v: %w", doc.ImgSize, ErrInvalidImageSize)
		}
		b.width, b.height = doc.ImgSize[0], doc.ImgSize[1]
	}
	return b, nil
}

// classNamesFrom prefers idx2class and falls back to inverting class2idx.
func classNamesFrom(doc Document) (map[int]string, error) {
	switch {
	case len(doc.Idx2Class) > 0:
		out := make(map[int]string, len(doc.Idx2Class))
		for k, name := range doc.Idx2Class {
			i, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("idx2class key %q: %w", k, err)
			}
			if i < 0 {
				return nil, fmt.Errorf("idx2class[%d]: %w", i, ErrNegativeIndex)
			}
			out[i] = name
		}
		return out, nil
	case len(doc.Class2Idx) > 0:
		out := make(map[int]string, len(doc.Class2Idx))
		for name, i := range doc.Class2Idx {
			if i < 0 {
				return nil, fmt.Errorf("class2idx[%q]: %w", name, ErrNegativeIndex)
			}
			out[i] = name
		}
		return out, nil
	default:
		return defaultClassIndex(), nil
	}
}

// Python's str.lower() was applied to every lookup key, so the stored
// vocabulary is folded too in case a training run wrote mixed case. Keys
// that fold together must agree on their index.
func lowerKeys(name string, in map[string]int) (map[string]int, error) {
	out := make(map[string]int, len(in))
	for k, v := range in {
		key := canonical(k)
		if prev, ok := out[key]; ok && prev != v {
			return nil, fmt.Errorf("%s[%q]: indices %d and %d: %w", name, key, min(prev, v), max(prev, v), ErrDuplicateVocabularyKey)
		}
		out[key] = v
	}
	return out, nil
}

// ValidateOutputs checks that every position of an n-wide model output
// resolves to a class name.
func (b *Bundle) ValidateOutputs(n int) error {
	for i := 0; i < n; i++ {
		if _, ok := b.classNames[i]; !ok {
			return fmt.Errorf("output %d of %d: %w", i, n, ErrIncompleteClassIndex)
		}
	}
	return nil
}

func (b *Bundle) AgeMean() float64 { return b.ageMean }
func (b *Bundle) AgeStd() float64  { return b.ageStd }

// ImageSize returns the target (width, height) for resizing.
func (b *Bundle) ImageSize() (int, int) { return b.width, b.height }

// NumClasses returns the number of named classes, i.e. the expected model
// output width when the class index is dense.
func (b *Bundle) NumClasses() int { return len(b.classNames) }

// ClassName resolves a model output position.
func (b *Bundle) ClassName(i int) (string, bool) {
	name, ok := b.classNames[i]
	return name, ok
}

// Classes returns class names ordered by output position.
func (b *Bundle) Classes() []string {
	idx := make([]int, 0, len(b.classNames))
	for i := range b.classNames {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]string, len(idx))
	for j, i := range idx {
		out[j] = b.classNames[i]
	}
	return out
}

// SexToIndex returns a copy of the sex vocabulary.
func (b *Bundle) SexToIndex() map[string]int { return copyIndex(b.sexToIndex) }

// SiteToIndex returns a copy of the site vocabulary.
func (b *Bundle) SiteToIndex() map[string]int { return copyIndex(b.siteToIndex) }

// Sites returns the site vocabulary keys ordered by index, then name.
func (b *Bundle) Sites() []string { return orderedKeys(b.siteToIndex) }

// Sexes returns the sex vocabulary keys ordered by index, then name.
func (b *Bundle) Sexes() []string { return orderedKeys(b.sexToIndex) }

func copyIndex(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func orderedKeys(in map[string]int) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if in[keys[i]] != in[keys[j]] {
			return in[keys[i]] < in[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
