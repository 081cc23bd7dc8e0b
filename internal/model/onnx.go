package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig describes an exported multimodal network.
type ONNXConfig struct {
	Path string
	// SharedLibraryPath points at libonnxruntime; empty uses the loader default.
	SharedLibraryPath string
	Inputs            InputNames
	Output            string
	// SiteIndexType is the element type of the site input: int64 (default), int32 or float32.
	SiteIndexType string
	Width         int
	Height        int
	SexWidth      int
	NumClasses    int
}

// ONNX runs the network in-process through ONNX Runtime. A single session
// with pre-bound tensors is reused, so Run calls are serialized.
type ONNX struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	image      *ort.Tensor[float32]
	age        *ort.Tensor[float32]
	sex        *ort.Tensor[float32]
	site       siteTensor
	output     *ort.Tensor[float32]
	numClasses int
}

// siteTensor hides the configured element type of the site index input.
type siteTensor interface {
	set(v int64)
	value() ort.ArbitraryTensor
	destroy()
}

type typedSite[T int64 | int32 | float32] struct{ t *ort.Tensor[T] }

func (s typedSite[T]) set(v int64)                { s.t.GetData()[0] = T(v) }
func (s typedSite[T]) value() ort.ArbitraryTensor { return s.t }
func (s typedSite[T]) destroy()                   { s.t.Destroy() }

func newSiteTensor(kind string) (siteTensor, error) {
	shape := ort.NewShape(1, 1)
	switch strings.ToLower(kind) {
	case "", "int64":
		t, err := ort.NewEmptyTensor[int64](shape)
		if err != nil {
			return nil, err
		}
		return typedSite[int64]{t}, nil
	case "int32":
		t, err := ort.NewEmptyTensor[int32](shape)
		if err != nil {
			return nil, err
		}
		return typedSite[int32]{t}, nil
	case "float32":
		t, err := ort.NewEmptyTensor[float32](shape)
		if err != nil {
			return nil, err
		}
		return typedSite[float32]{t}, nil
	default:
		return nil, fmt.Errorf("unsupported site index type %q", kind)
	}
}

// NewONNX initializes the ONNX Runtime environment and opens the session.
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("onnx model path is required")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.SexWidth <= 0 || cfg.NumClasses <= 0 {
		return nil, fmt.Errorf("onnx: invalid tensor sizes %+v", cfg)
	}
	names := cfg.Inputs.WithDefaults()
	output := cfg.Output
	if output == "" {
		output = "output"
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	if err := checkOutputSize(cfg.Path, &output, cfg.NumClasses); err != nil {
		_ = ort.DestroyEnvironment()
		return nil, err
	}

	m := &ONNX{numClasses: cfg.NumClasses}
	ok := false
	defer func() {
		if !ok {
			_ = m.Close()
		}
	}()

	var err error
	if m.image, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.Height), int64(cfg.Width), 3)); err != nil {
		return nil, fmt.Errorf("failed to create image tensor: %w", err)
	}
	if m.age, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1)); err != nil {
		return nil, fmt.Errorf("failed to create age tensor: %w", err)
	}
	if m.sex, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.SexWidth))); err != nil {
		return nil, fmt.Errorf("failed to create sex tensor: %w", err)
	}
	if m.site, err = newSiteTensor(cfg.SiteIndexType); err != nil {
		return nil, fmt.Errorf("failed to create site tensor: %w", err)
	}
	if m.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.NumClasses))); err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	m.session, err = ort.NewAdvancedSession(cfg.Path,
		[]string{names.Image, names.Age, names.SexOneHot, names.SiteIndex}, []string{output},
		[]ort.ArbitraryTensor{m.image, m.age, m.sex, m.site.value()}, []ort.ArbitraryTensor{m.output},
		nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	ok = true
	return m, nil
}

// checkOutputSize compares the declared output width with the class count.
// Dynamic dimensions (-1) are accepted and checked on every Run instead.
func checkOutputSize(path string, output *string, numClasses int) error {
	_, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return fmt.Errorf("failed to read ONNX model info: %w", err)
	}
	for _, o := range outputs {
		if o.Name != *output {
			continue
		}
		dims := o.Dimensions
		if n := len(dims); n > 0 && dims[n-1] > 0 && dims[n-1] != int64(numClasses) {
			return fmt.Errorf("%w: output %q has %d values, artifacts name %d classes", ErrOutputShape, o.Name, dims[n-1], numClasses)
		}
		return nil
	}
	if len(outputs) == 1 && *output == "output" {
		// the default name did not match; a single-output graph is unambiguous
		*output = outputs[0].Name
		return checkOutputSize(path, output, numClasses)
	}
	return fmt.Errorf("%w: model has no output named %q", ErrOutputShape, *output)
}

func (m *ONNX) Name() string { return "onnx" }

// Predict copies the batch into the bound tensors and runs the session.
// ONNX Runtime cannot be interrupted mid-run; ctx is only checked before.
func (m *ONNX) Predict(ctx context.Context, b Batch) ([]float64, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, fmt.Errorf("onnx session closed")
	}

	img := m.image.GetData()
	if len(img) != len(b.Image) {
		return nil, fmt.Errorf("image tensor has %d values, session expects %d", len(b.Image), len(img))
	}
	copy(img, b.Image)
	m.age.GetData()[0] = b.Age
	sex := m.sex.GetData()
	if len(sex) != len(b.SexOneHot) {
		return nil, fmt.Errorf("sex one-hot has %d values, session expects %d", len(b.SexOneHot), len(sex))
	}
	copy(sex, b.SexOneHot)
	m.site.set(b.SiteIndex)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := m.output.GetData()
	if len(out) != m.numClasses {
		return nil, fmt.Errorf("%w: %d values for %d classes", ErrOutputShape, len(out), m.numClasses)
	}
	probs := make([]float64, len(out))
	for i, v := range out {
		probs[i] = float64(v)
	}
	return probs, nil
}

func (m *ONNX) Ready(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return fmt.Errorf("onnx session closed")
	}
	return nil
}

// Close releases the tensors, the session and the runtime environment.
func (m *ONNX) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	if m.image != nil {
		m.image.Destroy()
		m.image = nil
	}
	if m.age != nil {
		m.age.Destroy()
		m.age = nil
	}
	if m.sex != nil {
		m.sex.Destroy()
		m.sex = nil
	}
	if m.site != nil {
		m.site.destroy()
		m.site = nil
	}
	if m.output != nil {
		m.output.Destroy()
		m.output = nil
	}
	return ort.DestroyEnvironment()
}
