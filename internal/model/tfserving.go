package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TFServing calls a TensorFlow Serving REST endpoint (port 8501 by default).
type TFServing struct {
	Endpoint      string
	ModelName     string
	ModelVersion  string
	SignatureName string
	// Output selects one named output when the signature returns several.
	Output      string
	Inputs      InputNames
	BearerToken string
	NumClasses  int

	httpClient *http.Client
}

// TFServingOption configures a TFServing client.
type TFServingOption func(*TFServing)

func WithTFServingVersion(v string) TFServingOption {
	return func(c *TFServing) { c.ModelVersion = v }
}

func WithTFServingSignature(name string) TFServingOption {
	return func(c *TFServing) { c.SignatureName = name }
}

func WithTFServingOutput(name string) TFServingOption {
	return func(c *TFServing) { c.Output = name }
}

func WithTFServingInputs(n InputNames) TFServingOption {
	return func(c *TFServing) { c.Inputs = n.WithDefaults() }
}

func WithTFServingToken(token string) TFServingOption {
	return func(c *TFServing) { c.BearerToken = token }
}

// WithTFServingHTTPClient replaces the default client, mostly for tests.
func WithTFServingHTTPClient(hc *http.Client) TFServingOption {
	return func(c *TFServing) { c.httpClient = hc }
}

func WithTFServingTimeout(d time.Duration) TFServingOption {
	return func(c *TFServing) { c.httpClient = &http.Client{Timeout: d} }
}

// NewTFServing returns a REST client for modelName at endpoint. numClasses
// is used to validate the output vector.
func NewTFServing(endpoint, modelName string, numClasses int, opts ...TFServingOption) *TFServing {
	c := &TFServing{
		Endpoint:      strings.TrimRight(endpoint, "/"),
		ModelName:     modelName,
		SignatureName: "serving_default",
		Inputs:        DefaultInputNames(),
		NumClasses:    numClasses,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TFServing) Name() string { return "tfserving" }

func (c *TFServing) modelURL() string {
	if c.ModelVersion != "" {
		return fmt.Sprintf("%s/v1/models/%s/versions/%s", c.Endpoint, c.ModelName, c.ModelVersion)
	}
	return fmt.Sprintf("%s/v1/models/%s", c.Endpoint, c.ModelName)
}

// requestBody builds a columnar ("inputs") predict request with batch size 1.
func (c *TFServing) requestBody(b Batch) map[string]any {
	img := make([][][]float32, b.Height)
	for y := 0; y < b.Height; y++ {
		row := make([][]float32, b.Width)
		for x := 0; x < b.Width; x++ {
			off := (y*b.Width + x) * 3
			row[x] = b.Image[off : off+3]
		}
		img[y] = row
	}
	body := map[string]any{
		"inputs": map[string]any{
			c.Inputs.Image:     [][][][]float32{img},
			c.Inputs.Age:       [][]float32{{b.Age}},
			c.Inputs.SexOneHot: [][]float32{b.SexOneHot},
			c.Inputs.SiteIndex: [][]int64{{b.SiteIndex}},
		},
	}
	if c.SignatureName != "" {
		body["signature_name"] = c.SignatureName
	}
	return body
}

func (c *TFServing) do(req *http.Request) (*http.Response, error) {
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	return c.httpClient.Do(req)
}

// Predict posts the batch to :predict and returns the first output row.
func (c *TFServing) Predict(ctx context.Context, b Batch) ([]float64, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(c.requestBody(b))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL()+":predict", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("tf serving request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result struct {
		Outputs     json.RawMessage `json:"outputs"`
		Predictions json.RawMessage `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	raw := result.Outputs
	if len(raw) == 0 {
		raw = result.Predictions
	}
	probs, err := c.parseOutputs(raw)
	if err != nil {
		return nil, err
	}
	if c.NumClasses > 0 && len(probs) != c.NumClasses {
		return nil, fmt.Errorf("%w: %d values for %d classes", ErrOutputShape, len(probs), c.NumClasses)
	}
	return probs, nil
}

// parseOutputs accepts [[p...]], [p...] or {"name": [[p...]]}.
func (c *TFServing) parseOutputs(raw json.RawMessage) ([]float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: response has no outputs", ErrOutputShape)
	}
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err == nil {
		if len(rows) != 1 {
			return nil, fmt.Errorf("%w: %d rows for batch of 1", ErrOutputShape, len(rows))
		}
		return rows[0], nil
	}
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var named map[string]json.RawMessage
	if err := json.Unmarshal(raw, &named); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputShape, err)
	}
	if c.Output != "" {
		v, ok := named[c.Output]
		if !ok {
			return nil, fmt.Errorf("%w: output %q not in response", ErrOutputShape, c.Output)
		}
		return c.parseOutputs(v)
	}
	if len(named) != 1 {
		return nil, fmt.Errorf("%w: %d named outputs, set an output name", ErrOutputShape, len(named))
	}
	for _, v := range named {
		return c.parseOutputs(v)
	}
	return nil, nil
}

// Ready reports whether any served version of the model is AVAILABLE.
func (c *TFServing) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var status struct {
		ModelVersionStatus []struct {
			Version string `json:"version"`
			State   string `json:"state"`
		} `json:"model_version_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode model status: %w", err)
	}
	for _, s := range status.ModelVersionStatus {
		if s.State == "AVAILABLE" {
			return nil
		}
	}
	return fmt.Errorf("model %s has no AVAILABLE version", c.ModelName)
}

func (c *TFServing) Close() error { return nil }
