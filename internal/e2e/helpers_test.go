package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"skinsrv/internal/cache"
	"skinsrv/internal/classifier"
	"skinsrv/internal/httpapi"
	"skinsrv/internal/inference"
	"skinsrv/internal/model"
)

// tfServing is a fake TensorFlow Serving REST endpoint. It answers every
// predict call with probs unless status is set to a non-200 code.
type tfServing struct {
	srv    *httptest.Server
	calls  atomic.Int64
	status atomic.Int64
	probs  []float64
	// last holds the most recent decoded request body.
	last atomic.Value
}

func newTFServing(t *testing.T, probs ...float64) *tfServing {
	t.Helper()
	f := &tfServing{probs: probs}
	f.status.Store(http.StatusOK)
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"model_version_status":[{"version":"1","state":"AVAILABLE"}]}`)
			return
		}
		f.calls.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.last.Store(body)
		if code := int(f.status.Load()); code != http.StatusOK {
			http.Error(w, `{"error":"boom"}`, code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"outputs": [][]float64{f.probs}})
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *tfServing) lastInputs(t *testing.T) map[string]any {
	t.Helper()
	body, _ := f.last.Load().(map[string]any)
	in, ok := body["inputs"].(map[string]any)
	if !ok {
		t.Fatalf("tf serving saw no inputs: %v", body)
	}
	return in
}

type stack struct {
	srv    *httptest.Server
	svc    *inference.Service
	events *inference.MemoryPublisher
}

// newStack wires the real bundle, TF Serving client, cache and service
// behind the HTTP mux.
func newStack(t *testing.T, artifacts string, tf *tfServing, c cache.Cache, mutate func(*inference.Config)) *stack {
	t.Helper()
	bundle, err := classifier.Parse([]byte(artifacts))
	if err != nil {
		t.Fatalf("artifacts: %v", err)
	}
	events := inference.NewMemoryPublisher()
	cfg := inference.Config{
		Bundle:    bundle,
		Model:     model.NewTFServing(tf.srv.URL, "skin", bundle.NumClasses()),
		Cache:     c,
		Publisher: events,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := inference.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close()
	})
	return &stack{srv: srv, svc: svc, events: events}
}

func lesionJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(150 + x%50), G: 90, B: uint8(60 + y%40), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	return buf.Bytes()
}

// postImage uploads img with the given form fields and returns status and body.
func postImage(t *testing.T, url string, img []byte, fields map[string]string) (*http.Response, []byte) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "lesion.jpg")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(img)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, &body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	out, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, out
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

type ranked struct {
	Class string  `json:"class"`
	Prob  float64 `json:"prob"`
}
