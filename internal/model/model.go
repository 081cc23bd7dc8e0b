// Package model invokes the trained multimodal network. The network itself is
// opaque: a Batch of image and metadata tensors goes in, one probability per
// class comes out in output order.
package model

import (
	"context"
	"errors"
	"fmt"
)

// Model is a loaded classifier. Implementations must be safe for concurrent
// Predict calls.
type Model interface {
	// Name identifies the backend, e.g. "onnx" or "tfserving".
	Name() string
	// Predict runs one batch of size 1 and returns the output vector.
	Predict(ctx context.Context, b Batch) ([]float64, error)
	// Ready probes the backend.
	Ready(ctx context.Context) error
	Close() error
}

// Batch holds one sample's input tensors.
type Batch struct {
	// Image is HWC float32 RGB in the 0..255 range.
	Image  []float32
	Width  int
	Height int
	// Age is the normalized age.
	Age       float32
	SexOneHot []float32
	SiteIndex int64
}

// Validate checks the image tensor against its declared size.
func (b Batch) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", b.Width, b.Height)
	}
	if want := b.Width * b.Height * 3; len(b.Image) != want {
		return fmt.Errorf("image tensor has %d values, want %d", len(b.Image), want)
	}
	if len(b.SexOneHot) == 0 {
		return errors.New("empty sex one-hot vector")
	}
	return nil
}

// InputNames maps the four batch tensors onto the network's input names.
type InputNames struct {
	Image     string `json:"image" yaml:"image" toml:"image"`
	Age       string `json:"age" yaml:"age" toml:"age"`
	SexOneHot string `json:"sex_ohe" yaml:"sex_ohe" toml:"sex_ohe"`
	SiteIndex string `json:"site_idx" yaml:"site_idx" toml:"site_idx"`
}

// DefaultInputNames are the Keras input layer names used at training time.
func DefaultInputNames() InputNames {
	return InputNames{Image: "image", Age: "age", SexOneHot: "sex_ohe", SiteIndex: "site_idx"}
}

// WithDefaults fills empty names from DefaultInputNames.
func (n InputNames) WithDefaults() InputNames {
	d := DefaultInputNames()
	if n.Image == "" {
		n.Image = d.Image
	}
	if n.Age == "" {
		n.Age = d.Age
	}
	if n.SexOneHot == "" {
		n.SexOneHot = d.SexOneHot
	}
	if n.SiteIndex == "" {
		n.SiteIndex = d.SiteIndex
	}
	return n
}

// ErrOutputShape is returned when the network output does not match the class count.
var ErrOutputShape = errors.New("unexpected model output shape")

// StatusError is a non-2xx answer from a remote model server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model server status=%d body=%s", e.Code, e.Body)
}
